package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/teneobot-lab/POS/internal/domain"
)

func TestCatalogAndLedgerRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("POS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set POS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("it-%d", stamp)
	txID := fmt.Sprintf("trx-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = $1`, itemID)
	})

	items := []domain.CatalogItem{{
		ID:         itemID,
		Name:       "Es Teh Manis",
		Category:   domain.CategoryBeverage,
		PriceCents: 3000,
		CostCents:  1200,
	}}
	if err := s.SaveCatalog(ctx, items); err != nil {
		t.Fatalf("save catalog: %v", err)
	}

	loaded, present, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if !present || len(loaded) != 1 {
		t.Fatalf("expected 1 catalog item, got present=%v len=%d", present, len(loaded))
	}
	if loaded[0] != items[0] {
		t.Fatalf("catalog round trip mismatch: %+v", loaded[0])
	}

	txs := []domain.Transaction{{
		ID:                txID,
		Timestamp:         time.Now().UnixMilli(),
		PaymentMethod:     domain.PaymentCash,
		TotalCents:        6000,
		CashReceivedCents: 10000,
		ChangeCents:       4000,
		Lines: []domain.TransactionLine{{
			ItemID:         itemID,
			Name:           "Es Teh Manis",
			Category:       domain.CategoryBeverage,
			UnitPriceCents: 3000,
			UnitCostCents:  1200,
			Qty:            2,
		}},
	}}
	if err := s.SaveTransactions(ctx, txs); err != nil {
		t.Fatalf("save transactions: %v", err)
	}

	loadedTxs, present, err := s.LoadTransactions(ctx)
	if err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if !present || len(loadedTxs) != 1 {
		t.Fatalf("expected 1 transaction, got present=%v len=%d", present, len(loadedTxs))
	}
	got := loadedTxs[0]
	if got.ID != txID || got.TotalCents != 6000 || got.ChangeCents != 4000 {
		t.Fatalf("transaction round trip mismatch: %+v", got)
	}
	if len(got.Lines) != 1 || got.Lines[0].Qty != 2 || got.Lines[0].Category != domain.CategoryBeverage {
		t.Fatalf("line round trip mismatch: %+v", got.Lines)
	}
	if got.TotalCents != got.LinesTotal() {
		t.Fatalf("total %d does not match lines %d", got.TotalCents, got.LinesTotal())
	}
}
