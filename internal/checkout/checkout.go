// Package checkout turns the current cart into an immutable transaction.
// The protocol walks Open -> Validating -> Committed, or Rejected with the
// cart and ledger exactly as they were.
package checkout

import (
	"fmt"
	"time"

	"github.com/teneobot-lab/POS/internal/cart"
	"github.com/teneobot-lab/POS/internal/catalog"
	"github.com/teneobot-lab/POS/internal/domain"
	"github.com/teneobot-lab/POS/internal/ledger"
	"github.com/teneobot-lab/POS/internal/store"
	"github.com/teneobot-lab/POS/internal/xid"
)

// State names the protocol position a request ended in.
type State string

const (
	StateOpen       State = "open"
	StateValidating State = "validating"
	StateCommitted  State = "committed"
	StateRejected   State = "rejected"
)

// Request carries the payment details for one checkout attempt.
// AmountReceivedCents is required for cash and ignored otherwise.
type Request struct {
	PaymentMethod       domain.PaymentMethod `json:"payment_method"`
	AmountReceivedCents *int64               `json:"amount_received_cents,omitempty"`
}

// Result reports the terminal state and, when committed, the transaction
// and any cash change.
type Result struct {
	State       State               `json:"state"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	ChangeCents int64               `json:"change_cents"`
}

// Processor owns one checkout cycle over a shared cart, catalog, and
// ledger. Clock and id generation are injectable.
type Processor struct {
	catalog *catalog.Catalog
	cart    *cart.Cart
	ledger  *ledger.Ledger
	now     func() time.Time
	newID   func(t time.Time) string
}

type Option func(*Processor)

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func WithIDFunc(f func(t time.Time) string) Option {
	return func(p *Processor) { p.newID = f }
}

func New(cat *catalog.Catalog, crt *cart.Cart, led *ledger.Ledger, opts ...Option) *Processor {
	p := &Processor{
		catalog: cat,
		cart:    crt,
		ledger:  led,
		now:     time.Now,
		newID:   func(t time.Time) string { return xid.At("trx", t) },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates the request against the live cart, and on success
// snapshots the cart into a transaction, prepends it to the ledger, and
// clears the cart. Rejection leaves every collaborator untouched.
func (p *Processor) Process(req Request) (Result, error) {
	rejected := Result{State: StateRejected}

	if !req.PaymentMethod.Valid() {
		return rejected, fmt.Errorf("%w: unknown payment method %q", store.ErrValidation, req.PaymentMethod)
	}
	if p.cart.IsEmpty() {
		return rejected, fmt.Errorf("%w: cart is empty", store.ErrValidation)
	}

	total := p.cart.Total()
	var received int64
	if req.PaymentMethod == domain.PaymentCash {
		if req.AmountReceivedCents == nil {
			return rejected, fmt.Errorf("%w: cash payment needs amount received", store.ErrValidation)
		}
		received = *req.AmountReceivedCents
		if received < total {
			return rejected, fmt.Errorf("%w: received %d below total %d", store.ErrValidation, received, total)
		}
	}

	lines := p.snapshotLines()
	if len(lines) == 0 {
		// every line pointed at a since-removed item
		return rejected, fmt.Errorf("%w: no sellable items left in cart", store.ErrValidation)
	}

	now := p.now()
	tx := domain.Transaction{
		ID:            p.newID(now),
		Timestamp:     now.UnixMilli(),
		PaymentMethod: req.PaymentMethod,
		TotalCents:    total,
		Lines:         lines,
	}
	if req.PaymentMethod == domain.PaymentCash {
		tx.CashReceivedCents = received
		tx.ChangeCents = received - total
	}

	p.ledger.Prepend(tx)
	p.cart.Clear()

	committed := domain.CloneTransaction(tx)
	return Result{State: StateCommitted, Transaction: &committed, ChangeCents: tx.ChangeCents}, nil
}

// snapshotLines copies the live-joined catalog fields into denormalized
// transaction lines. Lines whose item vanished from the catalog are
// dropped, matching how Total priced them at zero.
func (p *Processor) snapshotLines() []domain.TransactionLine {
	cartLines := p.cart.Lines()
	out := make([]domain.TransactionLine, 0, len(cartLines))
	for _, line := range cartLines {
		item, err := p.catalog.Get(line.ItemID)
		if err != nil {
			continue
		}
		out = append(out, domain.TransactionLine{
			ItemID:         item.ID,
			Name:           item.Name,
			Category:       item.Category,
			UnitPriceCents: item.PriceCents,
			UnitCostCents:  item.CostCents,
			Qty:            line.Qty,
		})
	}
	return out
}
