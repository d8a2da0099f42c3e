package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category classifies a sellable item. The set is closed: values outside
// the constants below fail to parse.
type Category string

const (
	CategoryFood       Category = "food"
	CategorySkewer     Category = "skewer"
	CategoryFriedSnack Category = "fried_snack"
	CategoryBeverage   Category = "beverage"
	CategoryOther      Category = "other"
)

func Categories() []Category {
	return []Category{CategoryFood, CategorySkewer, CategoryFriedSnack, CategoryBeverage, CategoryOther}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategorySkewer, CategoryFriedSnack, CategoryBeverage, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PaymentMethod is how a transaction was settled. Closed set.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentQRIS, PaymentTransfer:
		return true
	}
	return false
}

func (m PaymentMethod) String() string { return string(m) }

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePaymentMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// CatalogItem is one sellable entry. Prices are integer cents; CostCents
// above PriceCents is allowed (negative margin is tolerated).
type CatalogItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	PriceCents int64    `json:"price_cents"`
	CostCents  int64    `json:"cost_cents"`
}

// TransactionLine is a fully denormalized copy of a catalog item at the
// moment of checkout. Catalog edits never reach back into it.
type TransactionLine struct {
	ItemID         string   `json:"item_id"`
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	UnitCostCents  int64    `json:"unit_cost_cents"`
	Qty            int      `json:"qty"`
}

// Transaction is an immutable checkout record. TotalCents always equals
// the sum of its lines' UnitPriceCents*Qty.
type Transaction struct {
	ID                string            `json:"id"`
	Timestamp         int64             `json:"timestamp"` // epoch milliseconds
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	TotalCents        int64             `json:"total_cents"`
	CashReceivedCents int64             `json:"cash_received_cents,omitempty"`
	ChangeCents       int64             `json:"change_cents,omitempty"`
	Lines             []TransactionLine `json:"lines"`
}

func (t Transaction) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// LinesTotal recomputes the sum of the lines, independent of TotalCents.
func (t Transaction) LinesTotal() int64 {
	var sum int64
	for _, line := range t.Lines {
		sum += LineAmount(line.UnitPriceCents, line.Qty)
	}
	return sum
}

func (t Transaction) LinesCost() int64 {
	var sum int64
	for _, line := range t.Lines {
		sum += LineAmount(line.UnitCostCents, line.Qty)
	}
	return sum
}

// CloneTransaction deep-copies a transaction so callers never alias
// ledger-owned line slices.
func CloneTransaction(t Transaction) Transaction {
	out := t
	out.Lines = make([]TransactionLine, len(t.Lines))
	copy(out.Lines, t.Lines)
	return out
}

func CloneTransactions(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, t := range txs {
		out[i] = CloneTransaction(t)
	}
	return out
}
