// Package memory is the in-process Storage used for tests and DB-less
// deployments. It deep-copies on every load and save so callers never
// share slices with the held state.
package memory

import (
	"context"
	"sync"

	"github.com/teneobot-lab/POS/internal/catalog"
	"github.com/teneobot-lab/POS/internal/domain"
)

type Store struct {
	mu           sync.RWMutex
	catalog      []domain.CatalogItem
	hasCatalog   bool
	transactions []domain.Transaction
	hasTxs       bool
}

func New() *Store {
	return &Store{}
}

// NewSeeded starts with the stall's default menu already saved, the
// state a fresh install reaches after its first load.
func NewSeeded() *Store {
	return &Store{
		catalog:    catalog.DefaultMenu(),
		hasCatalog: true,
	}
}

func (s *Store) LoadCatalog(ctx context.Context) ([]domain.CatalogItem, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasCatalog {
		return nil, false, nil
	}
	out := make([]domain.CatalogItem, len(s.catalog))
	copy(out, s.catalog)
	return out, true, nil
}

func (s *Store) SaveCatalog(ctx context.Context, items []domain.CatalogItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	held := make([]domain.CatalogItem, len(items))
	copy(held, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = held
	s.hasCatalog = true
	return nil
}

func (s *Store) LoadTransactions(ctx context.Context) ([]domain.Transaction, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasTxs {
		return nil, false, nil
	}
	return domain.CloneTransactions(s.transactions), true, nil
}

func (s *Store) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	held := domain.CloneTransactions(txs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = held
	s.hasTxs = true
	return nil
}

func (s *Store) Close() error { return nil }
