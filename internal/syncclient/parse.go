package syncclient

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/xid"
)

// Remote payloads come from older app versions and flaky exports, so the
// raw types accept anything JSON-shaped and the coercers repair what they
// can: line arrays double-encoded as strings are re-decoded, broken
// timestamps become now, unknown enum values fall back to safe members,
// and negative money clamps to zero. A record is dropped only when no
// usable lines survive.

type rawEnvelope struct {
	Catalog      []rawCatalogItem `json:"catalog"`
	Transactions []rawTransaction `json:"transactions"`
}

type rawCatalogItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	PriceCents json.RawMessage `json:"price_cents"`
	CostCents  json.RawMessage `json:"cost_cents"`
}

type rawTransaction struct {
	ID                string          `json:"id"`
	Timestamp         json.RawMessage `json:"timestamp"`
	PaymentMethod     string          `json:"payment_method"`
	TotalCents        json.RawMessage `json:"total_cents"`
	CashReceivedCents json.RawMessage `json:"cash_received_cents"`
	ChangeCents       json.RawMessage `json:"change_cents"`
	Lines             json.RawMessage `json:"lines"`
}

type rawLine struct {
	ItemID         string          `json:"item_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	UnitPriceCents json.RawMessage `json:"unit_price_cents"`
	UnitCostCents  json.RawMessage `json:"unit_cost_cents"`
	Qty            json.RawMessage `json:"qty"`
}

func coerceEnvelope(envelope rawEnvelope, now time.Time) *PullResult {
	result := &PullResult{}

	if envelope.Catalog != nil {
		result.Catalog = make([]domain.CatalogItem, 0, len(envelope.Catalog))
		for _, raw := range envelope.Catalog {
			item, ok := coerceCatalogItem(raw)
			if !ok {
				continue
			}
			result.Catalog = append(result.Catalog, item)
		}
	}

	if envelope.Transactions != nil {
		result.Transactions = make([]domain.Transaction, 0, len(envelope.Transactions))
		for _, raw := range envelope.Transactions {
			tx, ok := coerceTransaction(raw, now)
			if !ok {
				continue
			}
			result.Transactions = append(result.Transactions, tx)
		}
	}

	return result
}

func coerceCatalogItem(raw rawCatalogItem) (domain.CatalogItem, bool) {
	if raw.ID == "" || raw.Name == "" {
		return domain.CatalogItem{}, false
	}
	return domain.CatalogItem{
		ID:         raw.ID,
		Name:       raw.Name,
		Category:   coerceCategory(raw.Category),
		PriceCents: coerceCents(raw.PriceCents, 0),
		CostCents:  coerceCents(raw.CostCents, 0),
	}, true
}

func coerceTransaction(raw rawTransaction, now time.Time) (domain.Transaction, bool) {
	lines := coerceLines(raw.Lines)
	if len(lines) == 0 {
		return domain.Transaction{}, false
	}

	tx := domain.Transaction{
		ID:                raw.ID,
		Timestamp:         coerceTimestamp(raw.Timestamp, now),
		PaymentMethod:     coercePaymentMethod(raw.PaymentMethod),
		CashReceivedCents: coerceCents(raw.CashReceivedCents, 0),
		ChangeCents:       coerceCents(raw.ChangeCents, 0),
		Lines:             lines,
	}
	if tx.ID == "" {
		tx.ID = xid.At("trx", time.UnixMilli(tx.Timestamp))
	}

	// restore the total invariant rather than trusting the wire value
	tx.TotalCents = tx.LinesTotal()
	return tx, true
}

// coerceLines handles both proper arrays and arrays double-encoded as a
// JSON string, which older exports produced.
func coerceLines(data json.RawMessage) []domain.TransactionLine {
	if len(data) == 0 {
		return nil
	}

	payload := []byte(data)
	var asString string
	if err := json.Unmarshal(payload, &asString); err == nil {
		payload = []byte(asString)
	}

	var raws []rawLine
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil
	}

	lines := make([]domain.TransactionLine, 0, len(raws))
	for _, raw := range raws {
		if raw.ItemID == "" && raw.Name == "" {
			continue
		}
		qty := int(coerceCents(raw.Qty, 1))
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, domain.TransactionLine{
			ItemID:         raw.ItemID,
			Name:           raw.Name,
			Category:       coerceCategory(raw.Category),
			UnitPriceCents: coerceCents(raw.UnitPriceCents, 0),
			UnitCostCents:  coerceCents(raw.UnitCostCents, 0),
			Qty:            qty,
		})
	}
	return lines
}

func coerceCategory(s string) domain.Category {
	if c, err := domain.ParseCategory(s); err == nil {
		return c
	}
	return domain.CategoryOther
}

func coercePaymentMethod(s string) domain.PaymentMethod {
	if m, err := domain.ParsePaymentMethod(s); err == nil {
		return m
	}
	return domain.PaymentCash
}

// coerceCents reads a JSON number or numeric string, clamping negatives
// to zero. Fractions truncate toward zero.
func coerceCents(data json.RawMessage, fallback int64) int64 {
	if len(data) == 0 {
		return fallback
	}

	var asFloat float64
	if err := json.Unmarshal(data, &asFloat); err == nil {
		if asFloat < 0 {
			return 0
		}
		return int64(asFloat)
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, err := strconv.ParseFloat(asString, 64); err == nil {
			if parsed < 0 {
				return 0
			}
			return int64(parsed)
		}
	}
	return fallback
}

// coerceTimestamp accepts epoch milliseconds (number or numeric string)
// or an RFC3339 string; anything else becomes now.
func coerceTimestamp(data json.RawMessage, now time.Time) int64 {
	if len(data) == 0 {
		return now.UnixMilli()
	}

	var asFloat float64
	if err := json.Unmarshal(data, &asFloat); err == nil && asFloat > 0 {
		return int64(asFloat)
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if parsed, err := strconv.ParseInt(asString, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, asString); err == nil {
			return parsed.UnixMilli()
		}
	}
	return now.UnixMilli()
}
