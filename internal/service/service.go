// Package service owns the running POS state: one catalog, one cart, one
// ledger, a storage backend, and optional remote sync. All mutation goes
// through here under a single mutex, so components never need their own
// locking.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/teneobot-lab/POS/internal/cache"
	"github.com/teneobot-lab/POS/internal/cart"
	"github.com/teneobot-lab/POS/internal/catalog"
	"github.com/teneobot-lab/POS/internal/checkout"
	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/ledger"
	"github.com/teneobot-lab/POS/internal/report"
	"github.com/teneobot-lab/POS/internal/store"
	"github.com/teneobot-lab/POS/internal/syncclient"
)

// Remote is the push/pull surface of the sync backend. Satisfied by
// *syncclient.Client; tests substitute fakes.
type Remote interface {
	Pull(ctx context.Context) (*syncclient.PullResult, error)
	PushCatalog(ctx context.Context, items []domain.CatalogItem) error
	PushTransaction(ctx context.Context, tx domain.Transaction) error
}

type Service struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	cart     *cart.Cart
	ledger   *ledger.Ledger
	checkout *checkout.Processor
	storage  store.Storage
	remote   Remote
	reports  cache.ReportCache
	cacheTTL time.Duration
	now      func() time.Time

	dirtyCatalog bool
	dirtyLedger  bool
}

type Option func(*Service)

func WithRemote(remote Remote) Option {
	return func(s *Service) { s.remote = remote }
}

func WithReportCache(c cache.ReportCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.reports = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(storage store.Storage, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog.New(),
		ledger:   ledger.New(),
		storage:  storage,
		reports:  cache.NoopReportCache{},
		cacheTTL: 30 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cart = cart.New(s.catalog)
	s.checkout = checkout.New(s.catalog, s.cart, s.ledger,
		checkout.WithClock(func() time.Time { return s.now() }))
	return s
}

// Load pulls the persisted state into memory. A missing catalog gets the
// default menu, persisted right away so the next boot finds it.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, present, err := s.storage.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("%w: load catalog: %v", store.ErrSync, err)
	}
	if !present {
		items = catalog.DefaultMenu()
		if err := s.storage.SaveCatalog(ctx, items); err != nil {
			log.Printf("[service] WARN: seeding catalog failed: %v", err)
			s.dirtyCatalog = true
		}
	}
	s.catalog.Replace(items)

	txs, present, err := s.storage.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("%w: load transactions: %v", store.ErrSync, err)
	}
	if present {
		s.ledger.Replace(txs)
	}

	log.Printf("[service] loaded %d catalog items, %d transactions", s.catalog.Len(), s.ledger.Len())
	return nil
}

// --- catalog ---

func (s *Service) ListItems(filter catalog.Filter) []domain.CatalogItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.CatalogItem
	for item := range s.catalog.List(filter) {
		out = append(out, item)
	}
	return out
}

func (s *Service) GetItem(id string) (domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Get(id)
}

func (s *Service) UpsertItem(ctx context.Context, item domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catalog.Upsert(item); err != nil {
		return err
	}
	s.persistCatalog(ctx)
	s.invalidateReports(ctx)
	s.pushCatalogRemote(ctx)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog.Remove(id)
	s.persistCatalog(ctx)
	s.invalidateReports(ctx)
	s.pushCatalogRemote(ctx)
	return nil
}

// --- cart ---

func (s *Service) AddToCart(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Add(id)
}

func (s *Service) DecrementCartItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Decrement(id)
}

func (s *Service) RemoveFromCart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(id)
}

func (s *Service) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

// CartView is the priced cart for display.
type CartView struct {
	Lines      []cart.View `json:"lines"`
	TotalCents int64       `json:"total_cents"`
}

func (s *Service) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartView{Lines: s.cart.Views(), TotalCents: s.cart.Total()}
}

// --- checkout ---

// Checkout runs the protocol and persists the grown ledger. A storage
// failure is logged and flagged for retry; the committed transaction is
// never rolled back.
func (s *Service) Checkout(ctx context.Context, req checkout.Request) (checkout.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.checkout.Process(req)
	if err != nil {
		return result, err
	}

	s.persistLedger(ctx)
	s.invalidateReports(ctx)

	if s.remote != nil && result.Transaction != nil {
		if err := s.remote.PushTransaction(ctx, *result.Transaction); err != nil {
			log.Printf("[service] WARN: push transaction failed: %v", err)
		}
	}

	return result, nil
}

// --- reporting ---

func (s *Service) Transactions(r domain.DateRange, query string, limit int) []domain.Transaction {
	txs := report.Search(s.inRange(r), query)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs
}

func (s *Service) inRange(r domain.DateRange) []domain.Transaction {
	s.mu.Lock()
	txs := s.ledger.Transactions()
	s.mu.Unlock()
	return report.FilterByRange(txs, r)
}

func (s *Service) Summary(ctx context.Context, r domain.DateRange) report.Totals {
	key := s.reportKey(ctx, "summary", rangeKey(r))
	var cached report.Totals
	if ok, err := s.reports.Get(ctx, key, &cached); err == nil && ok {
		return cached
	}

	totals := report.ComputeTotals(s.inRange(r))
	if err := s.reports.Set(ctx, key, totals, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: cache summary: %v", err)
	}
	return totals
}

func (s *Service) DailyRevenue(ctx context.Context, windowDays int) []report.DayBucket {
	key := s.reportKey(ctx, "daily", fmt.Sprintf("w%d", windowDays))
	var cached []report.DayBucket
	if ok, err := s.reports.Get(ctx, key, &cached); err == nil && ok {
		return cached
	}

	buckets := report.ByDay(s.inRange(domain.DateRange{}), windowDays, s.now())
	if err := s.reports.Set(ctx, key, buckets, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: cache daily: %v", err)
	}
	return buckets
}

func (s *Service) SalesByCategory(r domain.DateRange) []report.CategorySales {
	return report.ByCategory(s.inRange(r))
}

func (s *Service) ItemBreakdown(r domain.DateRange) []report.CategoryGroup {
	return report.ByItem(s.inRange(r))
}

func (s *Service) TopSellers(r domain.DateRange, limit int) []report.ItemSales {
	return report.TopItems(s.inRange(r), limit)
}

// --- sync ---

// SyncNow pulls the remote state and replaces the local catalog and
// ledger wholesale, then persists. The cart is untouched.
func (s *Service) SyncNow(ctx context.Context) error {
	if s.remote == nil {
		return fmt.Errorf("%w: no remote configured", store.ErrSync)
	}

	pulled, err := s.remote.Pull(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pulled.Catalog != nil {
		s.catalog.Replace(pulled.Catalog)
		s.persistCatalog(ctx)
	}
	if pulled.Transactions != nil {
		s.ledger.Replace(pulled.Transactions)
		s.persistLedger(ctx)
	}
	s.invalidateReports(ctx)

	log.Printf("[service] sync pulled %d catalog items, %d transactions", len(pulled.Catalog), len(pulled.Transactions))
	return nil
}

// PushCatalog mirrors the local catalog to the remote, best effort.
func (s *Service) PushCatalog(ctx context.Context) error {
	if s.remote == nil {
		return fmt.Errorf("%w: no remote configured", store.ErrSync)
	}
	s.mu.Lock()
	items := s.catalog.Items()
	s.mu.Unlock()
	return s.remote.PushCatalog(ctx, items)
}

// Flush retries any save that failed earlier. Memory state is always the
// source of truth, so a flush simply writes it out again.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirtyCatalog {
		if err := s.storage.SaveCatalog(ctx, s.catalog.Items()); err != nil {
			return fmt.Errorf("%w: flush catalog: %v", store.ErrSync, err)
		}
		s.dirtyCatalog = false
	}
	if s.dirtyLedger {
		if err := s.storage.SaveTransactions(ctx, s.ledger.Transactions()); err != nil {
			return fmt.Errorf("%w: flush transactions: %v", store.ErrSync, err)
		}
		s.dirtyLedger = false
	}
	return nil
}

// Dirty reports whether any state is still waiting for a successful save.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyCatalog || s.dirtyLedger
}

// --- persistence helpers, callers hold the mutex ---

func (s *Service) persistCatalog(ctx context.Context) {
	if err := s.storage.SaveCatalog(ctx, s.catalog.Items()); err != nil {
		log.Printf("[service] WARN: save catalog failed, will retry: %v", err)
		s.dirtyCatalog = true
		return
	}
	s.dirtyCatalog = false
}

func (s *Service) persistLedger(ctx context.Context) {
	if err := s.storage.SaveTransactions(ctx, s.ledger.Transactions()); err != nil {
		log.Printf("[service] WARN: save transactions failed, will retry: %v", err)
		s.dirtyLedger = true
		return
	}
	s.dirtyLedger = false
}

// pushCatalogRemote mirrors the catalog to the remote after a local edit,
// best effort. Caller holds the lock.
func (s *Service) pushCatalogRemote(ctx context.Context) {
	if s.remote == nil {
		return
	}
	if err := s.remote.PushCatalog(ctx, s.catalog.Items()); err != nil {
		log.Printf("[service] WARN: push catalog failed: %v", err)
	}
}

func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.reports.Bump(ctx); err != nil {
		log.Printf("[service] WARN: cache bump: %v", err)
	}
}

func (s *Service) reportKey(ctx context.Context, kind string, suffix string) string {
	return fmt.Sprintf("pos:report:%s:g%d:%s", kind, s.reports.Generation(ctx), suffix)
}

func rangeKey(r domain.DateRange) string {
	if r.IsZero() {
		return "all"
	}
	var start, end int64
	if r.Start != nil {
		start = r.Start.UnixMilli()
	}
	if r.End != nil {
		end = r.End.UnixMilli()
	}
	return fmt.Sprintf("%d-%d", start, end)
}
