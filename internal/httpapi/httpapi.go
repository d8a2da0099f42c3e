// Package httpapi exposes the POS over plain net/http. Handlers stay
// thin: decode, call the service, encode. Everything except login and
// the health probe sits behind the operator bearer token.
package httpapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/teneobot-lab/POS/internal/catalog"
	"github.com/teneobot-lab/POS/internal/checkout"
	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/report"
	"github.com/teneobot-lab/POS/internal/service"
	"github.com/teneobot-lab/POS/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(8, 10*time.Minute),
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/catalog", a.requireAuth(a.handleCatalog))
	mux.HandleFunc("/api/v1/catalog/", a.requireAuth(a.handleCatalogItem))
	mux.HandleFunc("/api/v1/cart", a.requireAuth(a.handleCart))
	mux.HandleFunc("/api/v1/cart/items", a.requireAuth(a.handleCartItems))
	mux.HandleFunc("/api/v1/cart/items/", a.requireAuth(a.handleCartItemActions))
	mux.HandleFunc("/api/v1/checkout", a.requireAuth(a.handleCheckout))
	mux.HandleFunc("/api/v1/transactions", a.requireAuth(a.handleTransactions))
	mux.HandleFunc("/api/v1/reports/summary", a.requireAuth(a.handleSummary))
	mux.HandleFunc("/api/v1/reports/daily", a.requireAuth(a.handleDaily))
	mux.HandleFunc("/api/v1/reports/categories", a.requireAuth(a.handleCategories))
	mux.HandleFunc("/api/v1/reports/items", a.requireAuth(a.handleItems))
	mux.HandleFunc("/api/v1/reports/top", a.requireAuth(a.handleTopSellers))
	mux.HandleFunc("/api/v1/sync", a.requireAuth(a.handleSync))
	mux.HandleFunc("/api/v1/sync/catalog", a.requireAuth(a.handleSyncCatalog))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		if _, err := a.auth.ParseToken(strings.TrimPrefix(header, "Bearer ")); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	key := clientKey(r)
	if !a.loginLimiter.allowed(key) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		a.loginLimiter.recordFailure(key)
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	a.loginLimiter.reset(key)
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := catalog.Filter{Name: r.URL.Query().Get("q")}
		if raw := r.URL.Query().Get("category"); raw != "" {
			category, err := domain.ParseCategory(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			filter.Category = category
		}
		items := a.service.ListItems(filter)
		if items == nil {
			items = []domain.CatalogItem{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var item domain.CatalogItem
		if err := decodeJSON(r, &item); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.UpsertItem(r.Context(), item); err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCatalogItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/catalog/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, errors.New("catalog item id required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := a.service.GetItem(id)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	case http.MethodDelete:
		if err := a.service.RemoveItem(r.Context(), id); err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": id})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.service.Cart())
	case http.MethodDelete:
		a.service.ClearCart()
		writeJSON(w, http.StatusOK, a.service.Cart())
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		ItemID string `json:"item_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.AddToCart(req.ItemID); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, a.service.Cart())
}

func (a *API) handleCartItemActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/cart/items/")

	if r.Method == http.MethodPost && strings.HasSuffix(rest, "/decrement") {
		id := strings.TrimSuffix(rest, "/decrement")
		if id == "" {
			writeError(w, http.StatusBadRequest, errors.New("cart item id required"))
			return
		}
		a.service.DecrementCartItem(id)
		writeJSON(w, http.StatusOK, a.service.Cart())
		return
	}

	if r.Method == http.MethodDelete {
		if rest == "" || strings.Contains(rest, "/") {
			writeError(w, http.StatusBadRequest, errors.New("cart item id required"))
			return
		}
		a.service.RemoveFromCart(rest)
		writeJSON(w, http.StatusOK, a.service.Cart())
		return
	}

	writeMethodNotAllowed(w)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req checkout.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 1000)

	txs := a.service.Transactions(dateRange, r.URL.Query().Get("q"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	totals := a.service.Summary(r.Context(), dateRange)
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))

	switch format {
	case "csv":
		doc := a.buildPrintableReport(dateRange, totals)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sales-report-"+doc.Stamp+".csv"))
		_, _ = w.Write([]byte(reportToCSV(doc)))
	case "print":
		doc := a.buildPrintableReport(dateRange, totals)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(reportToPrintableHTML(doc)))
	default:
		writeJSON(w, http.StatusOK, totals)
	}
}

func (a *API) handleDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	days := parsePositiveLimit(r.URL.Query().Get("days"), 7, 90)
	writeJSON(w, http.StatusOK, map[string]any{"days": a.service.DailyRevenue(r.Context(), days)})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": a.service.SalesByCategory(dateRange)})
}

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": a.service.ItemBreakdown(dateRange)})
}

func (a *API) handleTopSellers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 5, 50)
	writeJSON(w, http.StatusOK, map[string]any{"items": a.service.TopSellers(dateRange, limit)})
}

func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.service.SyncNow(r.Context()); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": true})
}

func (a *API) handleSyncCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.service.PushCatalog(r.Context()); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pushed": true})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

// parseRange reads optional from/to query params as local calendar days
// and snaps them to the day-boundary rule.
func parseRange(r *http.Request) (domain.DateRange, error) {
	fromRaw := strings.TrimSpace(r.URL.Query().Get("from"))
	toRaw := strings.TrimSpace(r.URL.Query().Get("to"))
	if fromRaw == "" && toRaw == "" {
		return domain.DateRange{}, nil
	}

	var from, to time.Time
	var err error
	if fromRaw != "" {
		from, err = time.ParseInLocation("2006-01-02", fromRaw, time.Local)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid from date %q", fromRaw)
		}
	}
	if toRaw != "" {
		to, err = time.ParseInLocation("2006-01-02", toRaw, time.Local)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid to date %q", toRaw)
		}
	}

	switch {
	case fromRaw != "" && toRaw != "":
		return domain.DayRange(from, to), nil
	case fromRaw != "":
		return domain.From(from), nil
	default:
		return domain.Until(to), nil
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrSync):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

type printableReport struct {
	Stamp      string
	From       string
	To         string
	Totals     report.Totals
	Categories []report.CategorySales
	TopItems   []report.ItemSales
}

func (a *API) buildPrintableReport(dateRange domain.DateRange, totals report.Totals) printableReport {
	doc := printableReport{
		Stamp:      time.Now().Format("2006-01-02"),
		From:       "start",
		To:         "now",
		Totals:     totals,
		Categories: a.service.SalesByCategory(dateRange),
		TopItems:   a.service.TopSellers(dateRange, 10),
	}
	if dateRange.Start != nil {
		doc.From = dateRange.Start.Format("2006-01-02")
	}
	if dateRange.End != nil {
		doc.To = dateRange.End.Format("2006-01-02")
	}
	return doc
}

func reportToCSV(doc printableReport) string {
	records := [][]string{
		{"section", "key", "value"},
		{"summary", "from", doc.From},
		{"summary", "to", doc.To},
		{"summary", "transactions", strconv.Itoa(doc.Totals.Count)},
		{"summary", "revenue_cents", strconv.FormatInt(doc.Totals.RevenueCents, 10)},
		{"summary", "cost_cents", strconv.FormatInt(doc.Totals.CostCents, 10)},
		{"summary", "profit_cents", strconv.FormatInt(doc.Totals.ProfitCents, 10)},
	}
	for _, c := range doc.Categories {
		records = append(records, []string{"category", string(c.Category) + "_revenue_cents", strconv.FormatInt(c.RevenueCents, 10)})
	}
	for _, item := range doc.TopItems {
		records = append(records,
			[]string{"item", item.ItemID + "_qty", strconv.Itoa(item.Qty)},
			[]string{"item", item.ItemID + "_revenue_cents", strconv.FormatInt(item.RevenueCents, 10)})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(records)
	return buf.String()
}

// reportHTMLTmpl renders the printable sales report. User-controlled
// fields are auto-escaped by html/template.
var reportHTMLTmpl = template.Must(template.New("sales-report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Sales Report {{.From}} to {{.To}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Sales Report {{.From}} to {{.To}}</h2>
  <p>Transactions: {{.Totals.Count}}</p>
  <p>Revenue: {{.Totals.RevenueCents}} | Cost: {{.Totals.CostCents}} | Profit: {{.Totals.ProfitCents}}</p>

  <h3>By Category</h3>
  <table>
    <thead><tr><th>Category</th><th>Revenue Cents</th></tr></thead>
    <tbody>{{range .Categories}}<tr><td>{{.Category}}</td><td style="text-align:right;">{{.RevenueCents}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Top Items</h3>
  <table>
    <thead><tr><th>Item</th><th>Qty</th><th>Revenue Cents</th></tr></thead>
    <tbody>{{range .TopItems}}<tr><td>{{.Name}}</td><td style="text-align:right;">{{.Qty}}</td><td style="text-align:right;">{{.RevenueCents}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

func reportToPrintableHTML(doc printableReport) string {
	var buf bytes.Buffer
	if err := reportHTMLTmpl.Execute(&buf, doc); err != nil {
		return "<!doctype html><html><body><p>Report rendering error.</p></body></html>"
	}
	return buf.String()
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so internals never leak; 4xx
	// messages are user-facing and pass through.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
