package shop

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresSnapshots keeps each record as a full jsonb document in the
// snapshots table, one row per key.
type PostgresSnapshots struct {
	db *sql.DB
}

func NewPostgresSnapshots(db *sql.DB) *PostgresSnapshots {
	return &PostgresSnapshots{db: db}
}

func (s *PostgresSnapshots) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSnapshots) LoadProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := s.load(ctx, productsKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresSnapshots) SaveProducts(ctx context.Context, products []Product) error {
	return s.save(ctx, productsKey, products)
}

func (s *PostgresSnapshots) LoadCart(ctx context.Context) ([]CartItem, error) {
	var out []CartItem
	if err := s.load(ctx, cartKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresSnapshots) SaveCart(ctx context.Context, items []CartItem) error {
	return s.save(ctx, cartKey, items)
}

func (s *PostgresSnapshots) load(ctx context.Context, key string, dst any) error {
	var doc []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT doc
			FROM snapshots
			WHERE key = $1
		`, key).Scan(&doc)
	})

	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	// An unparsable record counts as absent, not fatal.
	_ = json.Unmarshal(doc, dst)
	return nil
}

func (s *PostgresSnapshots) save(ctx context.Context, key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO snapshots (key, doc)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc
		`, key, doc)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
