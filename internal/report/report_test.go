package report

import (
	"testing"
	"time"

	"github.com/teneobot-lab/POS/internal/domain"
)

func line(itemID, name string, category domain.Category, price, cost int64, qty int) domain.TransactionLine {
	return domain.TransactionLine{
		ItemID: itemID, Name: name, Category: category,
		UnitPriceCents: price, UnitCostCents: cost, Qty: qty,
	}
}

func tx(id string, at time.Time, lines ...domain.TransactionLine) domain.Transaction {
	t := domain.Transaction{
		ID:            id,
		Timestamp:     at.UnixMilli(),
		PaymentMethod: domain.PaymentCash,
		Lines:         lines,
	}
	t.TotalCents = t.LinesTotal()
	return t
}

var base = time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local)

func sampleLedger() []domain.Transaction {
	return []domain.Transaction{
		// total 3000, cost 1200
		tx("t1", base, line("10", "Es Teh Manis", domain.CategoryBeverage, 3000, 1200, 1)),
		// total 5000, cost 2000
		tx("t2", base.AddDate(0, 0, -1),
			line("3", "Sate Usus", domain.CategorySkewer, 2000, 700, 2),
			line("6", "Tempe Mendoan", domain.CategoryFriedSnack, 1000, 600, 1)),
	}
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals(sampleLedger())
	want := Totals{RevenueCents: 8000, CostCents: 3200, ProfitCents: 4800, Count: 2}
	if totals != want {
		t.Fatalf("got %+v want %+v", totals, want)
	}
	if totals.ProfitCents != totals.RevenueCents-totals.CostCents {
		t.Fatalf("profit identity broken")
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)
	if totals != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestByDayZeroFillsWindow(t *testing.T) {
	buckets := ByDay(sampleLedger(), 7, base)
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}

	// labels are consecutive calendar days ending today
	if buckets[6].Label != base.Format("2006-01-02") {
		t.Fatalf("last bucket must be today, got %s", buckets[6].Label)
	}
	if buckets[0].Label != base.AddDate(0, 0, -6).Format("2006-01-02") {
		t.Fatalf("first bucket wrong: %s", buckets[0].Label)
	}

	if buckets[6].RevenueCents != 3000 {
		t.Fatalf("today should hold 3000, got %d", buckets[6].RevenueCents)
	}
	if buckets[5].RevenueCents != 5000 {
		t.Fatalf("yesterday should hold 5000, got %d", buckets[5].RevenueCents)
	}
	for i := 0; i < 5; i++ {
		if buckets[i].RevenueCents != 0 {
			t.Fatalf("day %s should be zero, got %d", buckets[i].Label, buckets[i].RevenueCents)
		}
	}
}

func TestByDayIgnoresOutOfWindow(t *testing.T) {
	old := tx("old", base.AddDate(0, 0, -30), line("1", "Nasi Kucing Teri", domain.CategoryFood, 3000, 1800, 1))
	buckets := ByDay([]domain.Transaction{old}, 7, base)
	for _, b := range buckets {
		if b.RevenueCents != 0 {
			t.Fatalf("out-of-window sale leaked into %s", b.Label)
		}
	}
}

func TestByCategorySortsDescendingAndSumsToRevenue(t *testing.T) {
	ledger := sampleLedger()
	groups := ByCategory(ledger)

	if len(groups) != 3 {
		t.Fatalf("expected 3 categories, got %+v", groups)
	}
	if groups[0].Category != domain.CategorySkewer || groups[0].RevenueCents != 4000 {
		t.Fatalf("expected skewer 4000 first, got %+v", groups[0])
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].RevenueCents > groups[i-1].RevenueCents {
			t.Fatalf("not sorted descending: %+v", groups)
		}
	}

	var sum int64
	for _, g := range groups {
		sum += g.RevenueCents
	}
	if sum != ComputeTotals(ledger).RevenueCents {
		t.Fatalf("category sums %d != revenue %d", sum, ComputeTotals(ledger).RevenueCents)
	}
}

func TestByItemGroupsByCategoryAscending(t *testing.T) {
	ledger := append(sampleLedger(),
		tx("t3", base, line("10", "Es Teh Manis", domain.CategoryBeverage, 3000, 1200, 2)))

	groups := ByItem(ledger)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %+v", groups)
	}
	for i := 1; i < len(groups); i++ {
		if string(groups[i].Category) < string(groups[i-1].Category) {
			t.Fatalf("groups not ascending by category: %+v", groups)
		}
	}

	// the beverage group accumulates both sales of item 10
	var beverage *CategoryGroup
	for i := range groups {
		if groups[i].Category == domain.CategoryBeverage {
			beverage = &groups[i]
		}
	}
	if beverage == nil || len(beverage.Items) != 1 {
		t.Fatalf("expected one beverage item, got %+v", beverage)
	}
	item := beverage.Items[0]
	if item.Qty != 3 || item.RevenueCents != 9000 || item.CostCents != 3600 {
		t.Fatalf("unexpected rollup: %+v", item)
	}
}

func TestByItemEmpty(t *testing.T) {
	if groups := ByItem(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %+v", groups)
	}
}

func TestFilterByRange(t *testing.T) {
	ledger := sampleLedger()

	r := domain.DayRange(base.AddDate(0, 0, -1), base.AddDate(0, 0, -1))
	got := FilterByRange(ledger, r)
	if len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("expected only t2, got %+v", got)
	}

	// idempotent: filtering the result again changes nothing
	again := FilterByRange(got, r)
	if len(again) != len(got) || again[0].ID != got[0].ID {
		t.Fatalf("filter not idempotent")
	}

	// open-ended bounds
	fromOnly := FilterByRange(ledger, domain.From(base))
	if len(fromOnly) != 1 || fromOnly[0].ID != "t1" {
		t.Fatalf("from-only filter wrong: %+v", fromOnly)
	}
	untilOnly := FilterByRange(ledger, domain.Until(base.AddDate(0, 0, -1)))
	if len(untilOnly) != 1 || untilOnly[0].ID != "t2" {
		t.Fatalf("until-only filter wrong: %+v", untilOnly)
	}

	// zero range passes everything through in order
	all := FilterByRange(ledger, domain.DateRange{})
	if len(all) != 2 || all[0].ID != "t1" {
		t.Fatalf("zero range must preserve order: %+v", all)
	}
}

func TestDayBoundariesAreInclusive(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.Local)
	edgeStart := tx("s", day, line("1", "Nasi Kucing Teri", domain.CategoryFood, 3000, 1800, 1))
	edgeEnd := tx("e", day.Add(24*time.Hour-time.Millisecond), line("1", "Nasi Kucing Teri", domain.CategoryFood, 3000, 1800, 1))
	outside := tx("o", day.Add(24*time.Hour), line("1", "Nasi Kucing Teri", domain.CategoryFood, 3000, 1800, 1))

	r := domain.DayRange(day, day)
	got := FilterByRange([]domain.Transaction{edgeStart, edgeEnd, outside}, r)
	if len(got) != 2 || got[0].ID != "s" || got[1].ID != "e" {
		t.Fatalf("inclusive bounds broken: %+v", got)
	}
}

func TestTopItems(t *testing.T) {
	ledger := append(sampleLedger(),
		tx("t3", base, line("10", "Es Teh Manis", domain.CategoryBeverage, 3000, 1200, 4)))

	top := TopItems(ledger, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].ItemID != "10" || top[0].Qty != 5 {
		t.Fatalf("expected item 10 on top with qty 5, got %+v", top[0])
	}
	if top[1].ItemID != "3" || top[1].Qty != 2 {
		t.Fatalf("expected sate usus second, got %+v", top[1])
	}

	if got := TopItems(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty ranking, got %+v", got)
	}
}

func TestSearch(t *testing.T) {
	txs := sampleLedger()

	byName := Search(txs, "sate")
	if len(byName) != 1 || byName[0].ID != "t2" {
		t.Fatalf("expected t2 for line-name match, got %+v", byName)
	}

	byID := Search(txs, "T1")
	if len(byID) != 1 || byID[0].ID != "t1" {
		t.Fatalf("id match must be case-insensitive, got %+v", byID)
	}

	if got := Search(txs, "  "); len(got) != len(txs) {
		t.Fatalf("blank query must keep everything, got %d", len(got))
	}
	if got := Search(txs, "martabak"); len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}

	// relative order survives
	both := Search(txs, "t")
	if len(both) != 2 || both[0].ID != "t1" || both[1].ID != "t2" {
		t.Fatalf("order not preserved: %+v", both)
	}
}
