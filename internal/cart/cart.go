// Package cart tracks the in-progress order. Lines hold only item ids and
// quantities; prices join live against the catalog until checkout copies
// them into a transaction snapshot.
package cart

import (
	"fmt"

	"github.com/teneobot-lab/POS/internal/catalog"
	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/store"
)

// Line is one cart entry: a catalog id plus a positive quantity.
type Line struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

// View is a priced render of a line for display, joined at read time.
type View struct {
	Item     domain.CatalogItem `json:"item"`
	Qty      int                `json:"qty"`
	Subtotal int64              `json:"subtotal_cents"`
}

type Cart struct {
	catalog *catalog.Catalog
	lines   []Line
	index   map[string]int
}

func New(cat *catalog.Catalog) *Cart {
	return &Cart{catalog: cat, index: make(map[string]int)}
}

// Add puts one unit of the item in the cart, incrementing an existing
// line or appending a new one.
func (c *Cart) Add(itemID string) error {
	if !c.catalog.Has(itemID) {
		return fmt.Errorf("%w: catalog item %s", store.ErrNotFound, itemID)
	}
	if pos, exists := c.index[itemID]; exists {
		c.lines[pos].Qty++
		return nil
	}
	c.index[itemID] = len(c.lines)
	c.lines = append(c.lines, Line{ItemID: itemID, Qty: 1})
	return nil
}

// Decrement takes one unit off a line, dropping the line at quantity one.
// Absent ids are a no-op so rapid taps replay safely.
func (c *Cart) Decrement(itemID string) {
	pos, exists := c.index[itemID]
	if !exists {
		return
	}
	if c.lines[pos].Qty > 1 {
		c.lines[pos].Qty--
		return
	}
	c.removeAt(pos, itemID)
}

// Remove deletes the whole line regardless of quantity. No-op if absent.
func (c *Cart) Remove(itemID string) {
	pos, exists := c.index[itemID]
	if !exists {
		return
	}
	c.removeAt(pos, itemID)
}

func (c *Cart) removeAt(pos int, itemID string) {
	c.lines = append(c.lines[:pos], c.lines[pos+1:]...)
	delete(c.index, itemID)
	for i := pos; i < len(c.lines); i++ {
		c.index[c.lines[i].ItemID] = i
	}
}

// Total sums current catalog price times quantity over all lines. Lines
// whose item has been removed from the catalog contribute nothing.
func (c *Cart) Total() int64 {
	var sum int64
	for _, line := range c.lines {
		item, err := c.catalog.Get(line.ItemID)
		if err != nil {
			continue
		}
		sum += domain.LineAmount(item.PriceCents, line.Qty)
	}
	return sum
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Lines returns a copy of the raw lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Views joins each line against the catalog for display. Orphaned lines
// are skipped.
func (c *Cart) Views() []View {
	out := make([]View, 0, len(c.lines))
	for _, line := range c.lines {
		item, err := c.catalog.Get(line.ItemID)
		if err != nil {
			continue
		}
		out = append(out, View{
			Item:     item,
			Qty:      line.Qty,
			Subtotal: domain.LineAmount(item.PriceCents, line.Qty),
		})
	}
	return out
}
