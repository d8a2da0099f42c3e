package report

import (
	"slices"

	"github.com/teneobot-lab/POS/internal/domain"
)

// TopItems ranks the best sellers across the set: highest quantity first,
// revenue breaking ties, capped at limit entries.
func TopItems(txs []domain.Transaction, limit int) []ItemSales {
	if limit < 1 {
		limit = 5
	}

	perItem := make(map[string]*ItemSales)
	for _, tx := range txs {
		for _, line := range tx.Lines {
			entry, ok := perItem[line.ItemID]
			if !ok {
				entry = &ItemSales{ItemID: line.ItemID, Name: line.Name}
				perItem[line.ItemID] = entry
			}
			entry.Qty += line.Qty
			entry.RevenueCents += domain.LineAmount(line.UnitPriceCents, line.Qty)
			entry.CostCents += domain.LineAmount(line.UnitCostCents, line.Qty)
		}
	}

	ranked := make([]ItemSales, 0, len(perItem))
	for _, entry := range perItem {
		ranked = append(ranked, *entry)
	}
	slices.SortStableFunc(ranked, func(a, b ItemSales) int {
		switch {
		case a.Qty > b.Qty:
			return -1
		case a.Qty < b.Qty:
			return 1
		}
		switch {
		case a.RevenueCents > b.RevenueCents:
			return -1
		case a.RevenueCents < b.RevenueCents:
			return 1
		}
		return cmpString(a.Name, b.Name)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
