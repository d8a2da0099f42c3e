package store

import (
	"context"
	"errors"

	"github.com/teneobot-lab/POS/internal/domain"
)

var (
	// ErrValidation rejects an operation with bad input (empty name,
	// negative price, empty cart, insufficient cash). State is untouched.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound signals an operation on a missing catalog item.
	ErrNotFound = errors.New("not found")

	// ErrSync signals a storage or remote-sync I/O failure. It never rolls
	// back a local mutation that already succeeded.
	ErrSync = errors.New("sync failed")
)

// Storage persists the catalog and the transaction ledger as whole
// collections. Loads report absence separately from emptiness so a fresh
// install can be seeded. Every field must round-trip exactly, including
// integer timestamps and enum strings.
type Storage interface {
	LoadCatalog(ctx context.Context) ([]domain.CatalogItem, bool, error)
	SaveCatalog(ctx context.Context, items []domain.CatalogItem) error
	LoadTransactions(ctx context.Context) ([]domain.Transaction, bool, error)
	SaveTransactions(ctx context.Context, txs []domain.Transaction) error
	Close() error
}
