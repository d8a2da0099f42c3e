// Package report computes revenue, cost, and profit views over committed
// transactions. Every function is pure and read-only: it never mutates
// its input, never fails, and returns zero-valued results for empty
// input.
package report

import (
	"slices"
	"strings"
	"time"

	"github.com/teneobot-lab/POS/internal/domain"
)

const dayLayout = "2006-01-02"

// Totals is the headline summary over a transaction set.
type Totals struct {
	RevenueCents int64 `json:"revenue_cents"`
	CostCents    int64 `json:"cost_cents"`
	ProfitCents  int64 `json:"profit_cents"`
	Count        int   `json:"count"`
}

// DayBucket is one calendar day's revenue. Label is the local date.
type DayBucket struct {
	Label        string `json:"label"`
	RevenueCents int64  `json:"revenue_cents"`
}

// CategorySales is per-category revenue across all lines.
type CategorySales struct {
	Category     domain.Category `json:"category"`
	RevenueCents int64           `json:"revenue_cents"`
}

// ItemSales sums one item's quantity, revenue, and cost.
type ItemSales struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Qty          int    `json:"qty"`
	RevenueCents int64  `json:"revenue_cents"`
	CostCents    int64  `json:"cost_cents"`
}

// CategoryGroup bundles item summaries under their category.
type CategoryGroup struct {
	Category domain.Category `json:"category"`
	Items    []ItemSales     `json:"items"`
}

// ComputeTotals sums revenue, cost, and profit over the set.
func ComputeTotals(txs []domain.Transaction) Totals {
	t := Totals{Count: len(txs)}
	for _, tx := range txs {
		t.RevenueCents += tx.TotalCents
		t.CostCents += tx.LinesCost()
	}
	t.ProfitCents = t.RevenueCents - t.CostCents
	return t
}

// ByDay buckets revenue into windowDays consecutive local calendar days
// ending on now's day, inclusive. Days without sales still appear with
// zero revenue.
func ByDay(txs []domain.Transaction, windowDays int, now time.Time) []DayBucket {
	if windowDays < 1 {
		windowDays = 1
	}

	buckets := make([]DayBucket, windowDays)
	index := make(map[string]int, windowDays)
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(windowDays - 1))
	for i := 0; i < windowDays; i++ {
		label := startDay.AddDate(0, 0, i).Format(dayLayout)
		buckets[i] = DayBucket{Label: label}
		index[label] = i
	}

	for _, tx := range txs {
		label := tx.Time().In(now.Location()).Format(dayLayout)
		if i, ok := index[label]; ok {
			buckets[i].RevenueCents += tx.TotalCents
		}
	}
	return buckets
}

// ByCategory sums line revenue per category across all transactions,
// sorted by descending revenue.
func ByCategory(txs []domain.Transaction) []CategorySales {
	sums := make(map[domain.Category]int64)
	for _, tx := range txs {
		for _, line := range tx.Lines {
			sums[line.Category] += domain.LineAmount(line.UnitPriceCents, line.Qty)
		}
	}

	out := make([]CategorySales, 0, len(sums))
	for category, revenue := range sums {
		out = append(out, CategorySales{Category: category, RevenueCents: revenue})
	}
	slices.SortStableFunc(out, func(a, b CategorySales) int {
		switch {
		case a.RevenueCents > b.RevenueCents:
			return -1
		case a.RevenueCents < b.RevenueCents:
			return 1
		}
		return cmpString(string(a.Category), string(b.Category))
	})
	return out
}

// ByItem rolls lines up per item, then groups the item summaries by
// category sorted ascending by category name. Items inside a group keep
// descending revenue order.
func ByItem(txs []domain.Transaction) []CategoryGroup {
	perItem := make(map[string]*ItemSales)
	itemCategory := make(map[string]domain.Category)
	for _, tx := range txs {
		for _, line := range tx.Lines {
			entry, ok := perItem[line.ItemID]
			if !ok {
				entry = &ItemSales{ItemID: line.ItemID, Name: line.Name}
				perItem[line.ItemID] = entry
				itemCategory[line.ItemID] = line.Category
			}
			entry.Qty += line.Qty
			entry.RevenueCents += domain.LineAmount(line.UnitPriceCents, line.Qty)
			entry.CostCents += domain.LineAmount(line.UnitCostCents, line.Qty)
		}
	}

	grouped := make(map[domain.Category][]ItemSales)
	for itemID, entry := range perItem {
		category := itemCategory[itemID]
		grouped[category] = append(grouped[category], *entry)
	}

	out := make([]CategoryGroup, 0, len(grouped))
	for category, items := range grouped {
		slices.SortStableFunc(items, func(a, b ItemSales) int {
			switch {
			case a.RevenueCents > b.RevenueCents:
				return -1
			case a.RevenueCents < b.RevenueCents:
				return 1
			}
			return cmpString(a.Name, b.Name)
		})
		out = append(out, CategoryGroup{Category: category, Items: items})
	}
	slices.SortStableFunc(out, func(a, b CategoryGroup) int {
		return cmpString(string(a.Category), string(b.Category))
	})
	return out
}

// FilterByRange keeps transactions whose timestamp falls inside the
// range, preserving relative order. Filtering twice with the same range
// returns the same set.
func FilterByRange(txs []domain.Transaction, r domain.DateRange) []domain.Transaction {
	if r.IsZero() {
		return slices.Clone(txs)
	}
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if r.Contains(tx.Timestamp) {
			out = append(out, tx)
		}
	}
	return out
}

// Search keeps transactions whose id or any line name contains the
// query, case-insensitive, preserving relative order. An empty query
// keeps everything.
func Search(txs []domain.Transaction, query string) []domain.Transaction {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return txs
	}
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if matchesQuery(tx, query) {
			out = append(out, tx)
		}
	}
	return out
}

func matchesQuery(tx domain.Transaction, query string) bool {
	if strings.Contains(strings.ToLower(tx.ID), query) {
		return true
	}
	for _, line := range tx.Lines {
		if strings.Contains(strings.ToLower(line.Name), query) {
			return true
		}
	}
	return false
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
