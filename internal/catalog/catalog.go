// Package catalog holds the ordered mapping of sellable items. Lookups go
// through an index; iteration follows insertion order so the menu renders
// stably.
package catalog

import (
	"fmt"
	"iter"
	"strings"

	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/store"
)

type Catalog struct {
	items []domain.CatalogItem
	index map[string]int
}

func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// NewFrom builds a catalog from a saved snapshot, keeping slice order.
// Duplicate ids collapse onto the first occurrence.
func NewFrom(items []domain.CatalogItem) *Catalog {
	c := New()
	for _, item := range items {
		if _, exists := c.index[item.ID]; exists {
			c.items[c.index[item.ID]] = item
			continue
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c
}

func validate(item domain.CatalogItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: item id is empty", store.ErrValidation)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: item name is empty", store.ErrValidation)
	}
	if item.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", store.ErrValidation)
	}
	if item.CostCents < 0 {
		return fmt.Errorf("%w: cost must not be negative", store.ErrValidation)
	}
	if !item.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", store.ErrValidation, item.Category)
	}
	return nil
}

// Upsert inserts a new item or replaces an existing one in place, keeping
// its position in iteration order.
func (c *Catalog) Upsert(item domain.CatalogItem) error {
	if err := validate(item); err != nil {
		return err
	}
	if pos, exists := c.index[item.ID]; exists {
		c.items[pos] = item
		return nil
	}
	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

// Remove deletes an entry. Removing an absent id is a no-op.
func (c *Catalog) Remove(id string) {
	pos, exists := c.index[id]
	if !exists {
		return
	}
	c.items = append(c.items[:pos], c.items[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.items); i++ {
		c.index[c.items[i].ID] = i
	}
}

func (c *Catalog) Get(id string) (domain.CatalogItem, error) {
	pos, exists := c.index[id]
	if !exists {
		return domain.CatalogItem{}, fmt.Errorf("%w: catalog item %s", store.ErrNotFound, id)
	}
	return c.items[pos], nil
}

func (c *Catalog) Has(id string) bool {
	_, exists := c.index[id]
	return exists
}

func (c *Catalog) Len() int { return len(c.items) }

// Filter narrows List. Zero values match everything.
type Filter struct {
	Category domain.Category
	Name     string
}

// List returns a restartable sequence over insertion order, optionally
// narrowed by category equality and a case-insensitive name substring.
func (c *Catalog) List(filter Filter) iter.Seq[domain.CatalogItem] {
	needle := strings.ToLower(strings.TrimSpace(filter.Name))
	return func(yield func(domain.CatalogItem) bool) {
		for _, item := range c.items {
			if filter.Category != "" && item.Category != filter.Category {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Items returns a snapshot slice in insertion order.
func (c *Catalog) Items() []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// Replace swaps the whole catalog, used when a remote pull wins.
func (c *Catalog) Replace(items []domain.CatalogItem) {
	fresh := NewFrom(items)
	c.items = fresh.items
	c.index = fresh.index
}

// DefaultMenu is the stall's starting menu, loaded on first run when
// storage has no catalog yet.
func DefaultMenu() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "1", Name: "Nasi Kucing Teri", Category: domain.CategoryFood, PriceCents: 3000, CostCents: 1800},
		{ID: "2", Name: "Nasi Kucing Tempe", Category: domain.CategoryFood, PriceCents: 3000, CostCents: 1800},
		{ID: "3", Name: "Sate Usus", Category: domain.CategorySkewer, PriceCents: 2000, CostCents: 1000},
		{ID: "4", Name: "Sate Telur Puyuh", Category: domain.CategorySkewer, PriceCents: 3500, CostCents: 2200},
		{ID: "5", Name: "Sate Kikil", Category: domain.CategorySkewer, PriceCents: 2500, CostCents: 1500},
		{ID: "6", Name: "Tempe Mendoan", Category: domain.CategoryFriedSnack, PriceCents: 1000, CostCents: 600},
		{ID: "7", Name: "Bakwan Goreng", Category: domain.CategoryFriedSnack, PriceCents: 1000, CostCents: 600},
		{ID: "8", Name: "Tahu Isi", Category: domain.CategoryFriedSnack, PriceCents: 1000, CostCents: 600},
		{ID: "9", Name: "Wedang Jahe", Category: domain.CategoryBeverage, PriceCents: 5000, CostCents: 2500},
		{ID: "10", Name: "Es Teh Manis", Category: domain.CategoryBeverage, PriceCents: 3000, CostCents: 1200},
		{ID: "11", Name: "Kopi Joss", Category: domain.CategoryBeverage, PriceCents: 6000, CostCents: 3000},
		{ID: "12", Name: "Susu Jahe", Category: domain.CategoryBeverage, PriceCents: 6000, CostCents: 3500},
	}
}
