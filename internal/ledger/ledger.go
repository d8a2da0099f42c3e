// Package ledger keeps the committed transaction history, most recent
// first. From the rest of the system's point of view it is append-only.
package ledger

import (
	"slices"

	"github.com/teneobot-lab/POS/internal/domain"
)

type Ledger struct {
	txs []domain.Transaction
}

func New() *Ledger {
	return &Ledger{}
}

func NewFrom(txs []domain.Transaction) *Ledger {
	l := &Ledger{txs: domain.CloneTransactions(txs)}
	l.sortDesc()
	return l
}

// Prepend puts a freshly committed transaction at the front.
func (l *Ledger) Prepend(tx domain.Transaction) {
	l.txs = append([]domain.Transaction{domain.CloneTransaction(tx)}, l.txs...)
}

// Transactions returns a deep copy so callers cannot reach back into
// committed records.
func (l *Ledger) Transactions() []domain.Transaction {
	return domain.CloneTransactions(l.txs)
}

func (l *Ledger) Len() int { return len(l.txs) }

// Replace swaps the whole history for a remote set, last writer wins at
// whole-ledger granularity. The result is re-sorted newest first.
func (l *Ledger) Replace(txs []domain.Transaction) {
	l.txs = domain.CloneTransactions(txs)
	l.sortDesc()
}

func (l *Ledger) sortDesc() {
	slices.SortStableFunc(l.txs, func(a, b domain.Transaction) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
}
