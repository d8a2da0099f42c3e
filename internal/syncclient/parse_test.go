package syncclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/teneobot-lab/POS/internal/domain"
)

var parseNow = time.Date(2026, 8, 31, 20, 0, 0, 0, time.Local)

func envelopeFrom(t *testing.T, payload string) rawEnvelope {
	t.Helper()
	var envelope rawEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return envelope
}

func TestCoerceWellFormedTransaction(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"transactions": [{
			"id": "trx-1",
			"timestamp": 1756600000000,
			"payment_method": "qris",
			"total_cents": 6000,
			"lines": [
				{"item_id":"10","name":"Es Teh Manis","category":"beverage","unit_price_cents":3000,"unit_cost_cents":1200,"qty":2}
			]
		}]
	}`)

	result := coerceEnvelope(envelope, parseNow)
	if len(result.Transactions) != 1 {
		t.Fatalf("expected one transaction, got %d", len(result.Transactions))
	}
	tx := result.Transactions[0]
	if tx.ID != "trx-1" || tx.Timestamp != 1756600000000 || tx.PaymentMethod != domain.PaymentQRIS {
		t.Fatalf("fields lost: %+v", tx)
	}
	if tx.TotalCents != 6000 || tx.TotalCents != tx.LinesTotal() {
		t.Fatalf("total invariant broken: %+v", tx)
	}
}

func TestCoerceLinesDoubleEncodedAsString(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"transactions": [{
			"id": "trx-2",
			"timestamp": 1756600000000,
			"payment_method": "cash",
			"lines": "[{\"item_id\":\"3\",\"name\":\"Sate Usus\",\"category\":\"skewer\",\"unit_price_cents\":2000,\"unit_cost_cents\":1000,\"qty\":2}]"
		}]
	}`)

	result := coerceEnvelope(envelope, parseNow)
	if len(result.Transactions) != 1 {
		t.Fatalf("string-encoded lines must be recovered")
	}
	tx := result.Transactions[0]
	if len(tx.Lines) != 1 || tx.Lines[0].Qty != 2 {
		t.Fatalf("unexpected lines: %+v", tx.Lines)
	}
	if tx.TotalCents != 4000 {
		t.Fatalf("total must be recomputed from lines, got %d", tx.TotalCents)
	}
}

func TestCoerceBadTimestampFallsBackToNow(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"transactions": [{
			"id": "trx-3",
			"timestamp": "not-a-date",
			"payment_method": "cash",
			"lines": [{"item_id":"1","name":"Nasi Kucing Teri","category":"food","unit_price_cents":3000,"unit_cost_cents":1800,"qty":1}]
		}]
	}`)

	result := coerceEnvelope(envelope, parseNow)
	if result.Transactions[0].Timestamp != parseNow.UnixMilli() {
		t.Fatalf("expected now fallback, got %d", result.Transactions[0].Timestamp)
	}
}

func TestCoerceTimestampFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{`1756600000000`, 1756600000000},
		{`"1756600000000"`, 1756600000000},
		{`"2026-08-30T10:00:00+07:00"`, time.Date(2026, 8, 30, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600)).UnixMilli()},
		{`null`, parseNow.UnixMilli()},
		{`-5`, parseNow.UnixMilli()},
	}
	for _, tc := range cases {
		got := coerceTimestamp(json.RawMessage(tc.raw), parseNow)
		if got != tc.want {
			t.Fatalf("coerceTimestamp(%s) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestCoerceUnknownEnumsFallBack(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"transactions": [{
			"id": "trx-4",
			"timestamp": 1756600000000,
			"payment_method": "cheque",
			"lines": [{"item_id":"x","name":"Mystery","category":"dessert","unit_price_cents":1000,"unit_cost_cents":-50,"qty":0}]
		}]
	}`)

	tx := coerceEnvelope(envelope, parseNow).Transactions[0]
	if tx.PaymentMethod != domain.PaymentCash {
		t.Fatalf("unknown payment method must become cash, got %s", tx.PaymentMethod)
	}
	line := tx.Lines[0]
	if line.Category != domain.CategoryOther {
		t.Fatalf("unknown category must become other, got %s", line.Category)
	}
	if line.UnitCostCents != 0 {
		t.Fatalf("negative money must clamp to zero, got %d", line.UnitCostCents)
	}
	if line.Qty != 1 {
		t.Fatalf("non-positive qty must become 1, got %d", line.Qty)
	}
}

func TestCoerceDropsUnusableTransactions(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"transactions": [
			{"id": "no-lines", "timestamp": 1756600000000, "payment_method": "cash", "lines": []},
			{"id": "garbage-lines", "timestamp": 1756600000000, "payment_method": "cash", "lines": "not json"},
			{"id": "ok", "timestamp": 1756600000000, "payment_method": "cash",
			 "lines": [{"item_id":"1","name":"Nasi Kucing Teri","category":"food","unit_price_cents":3000,"unit_cost_cents":1800,"qty":1}]}
		]
	}`)

	result := coerceEnvelope(envelope, parseNow)
	if len(result.Transactions) != 1 || result.Transactions[0].ID != "ok" {
		t.Fatalf("only the usable record should survive: %+v", result.Transactions)
	}
}

func TestCoerceMissingIDGetsGenerated(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"transactions": [{
			"timestamp": 1756600000000,
			"payment_method": "cash",
			"lines": [{"item_id":"1","name":"Nasi Kucing Teri","category":"food","unit_price_cents":3000,"unit_cost_cents":1800,"qty":1}]
		}]
	}`)

	tx := coerceEnvelope(envelope, parseNow).Transactions[0]
	if tx.ID == "" {
		t.Fatalf("missing id must be generated")
	}
}

func TestCoerceCatalog(t *testing.T) {
	envelope := envelopeFrom(t, `{
		"catalog": [
			{"id":"1","name":"Es Teh Manis","category":"beverage","price_cents":3000,"cost_cents":1200},
			{"id":"","name":"broken"},
			{"id":"2","name":"Mystery","category":"dessert","price_cents":"2500","cost_cents":-100}
		]
	}`)

	result := coerceEnvelope(envelope, parseNow)
	if len(result.Catalog) != 2 {
		t.Fatalf("expected 2 items (one dropped), got %+v", result.Catalog)
	}
	second := result.Catalog[1]
	if second.Category != domain.CategoryOther || second.PriceCents != 2500 || second.CostCents != 0 {
		t.Fatalf("coercion wrong: %+v", second)
	}
}

func TestAbsentCollectionsStayNil(t *testing.T) {
	result := coerceEnvelope(envelopeFrom(t, `{}`), parseNow)
	if result.Catalog != nil || result.Transactions != nil {
		t.Fatalf("absent collections must stay nil so callers can tell them from empty")
	}
}
