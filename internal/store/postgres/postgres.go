// Package postgres persists the catalog and ledger in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE catalog_items (
//		id          TEXT PRIMARY KEY,
//		position    INT NOT NULL,
//		name        TEXT NOT NULL,
//		category    TEXT NOT NULL,
//		price_cents BIGINT NOT NULL,
//		cost_cents  BIGINT NOT NULL,
//		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE transactions (
//		id                  TEXT PRIMARY KEY,
//		ts_ms               BIGINT NOT NULL,
//		payment_method      TEXT NOT NULL,
//		total_cents         BIGINT NOT NULL,
//		cash_received_cents BIGINT NOT NULL DEFAULT 0,
//		change_cents        BIGINT NOT NULL DEFAULT 0,
//		lines               JSONB NOT NULL
//	);
//
// Saves replace the whole collection inside one transaction, which is
// what the last-writer-wins sync contract needs.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/teneobot-lab/POS/internal/domain"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(12)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadCatalog(ctx context.Context) ([]domain.CatalogItem, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price_cents, cost_cents
		FROM catalog_items
		ORDER BY position
	`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, 32)
	for rows.Next() {
		var item domain.CatalogItem
		var category string
		if err := rows.Scan(&item.ID, &item.Name, &category, &item.PriceCents, &item.CostCents); err != nil {
			return nil, false, err
		}
		item.Category = domain.Category(category)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return items, true, nil
}

func (s *Store) SaveCatalog(ctx context.Context, items []domain.CatalogItem) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_items`); err != nil {
		return err
	}
	for position, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_items (id, position, name, category, price_cents, cost_cents, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,now())
		`, item.ID, position, item.Name, string(item.Category), item.PriceCents, item.CostCents)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) LoadTransactions(ctx context.Context) ([]domain.Transaction, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts_ms, payment_method, total_cents, cash_received_cents, change_cents, lines
		FROM transactions
		ORDER BY ts_ms DESC
	`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0, 128)
	for rows.Next() {
		var t domain.Transaction
		var method string
		var linesRaw []byte
		if err := rows.Scan(&t.ID, &t.Timestamp, &method, &t.TotalCents, &t.CashReceivedCents, &t.ChangeCents, &linesRaw); err != nil {
			return nil, false, err
		}
		t.PaymentMethod = domain.PaymentMethod(method)
		if err := json.Unmarshal(linesRaw, &t.Lines); err != nil {
			return nil, false, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(txs) == 0 {
		return nil, false, nil
	}
	return txs, true, nil
}

func (s *Store) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return err
	}
	for _, t := range txs {
		linesJSON, err := json.Marshal(t.Lines)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (id, ts_ms, payment_method, total_cents, cash_received_cents, change_cents, lines)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, t.ID, t.Timestamp, string(t.PaymentMethod), t.TotalCents, t.CashReceivedCents, t.ChangeCents, linesJSON)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
