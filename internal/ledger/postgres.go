// Package ledger provides a Postgres-backed quote log as an alternative to
// appending rows to the order sheet.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/cartonline/quotebot/internal/metrics"
	"github.com/cartonline/quotebot/internal/quote"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS quote_log (
	id               BIGSERIAL PRIMARY KEY,
	sheet_id         TEXT          NOT NULL,
	sheet_name       TEXT          NOT NULL,
	logged_at        TIMESTAMPTZ   NOT NULL,
	customer_phone   TEXT          NOT NULL,
	product_name     TEXT          NOT NULL,
	size             TEXT          NOT NULL,
	quantity         INTEGER       NOT NULL,
	unit_price       NUMERIC(12,2) NOT NULL,
	discount_percent NUMERIC(5,2)  NOT NULL,
	final_unit_price NUMERIC(12,2) NOT NULL,
	total_price      NUMERIC(14,2) NOT NULL,
	payment_method   TEXT          NOT NULL,
	delivery_label   TEXT          NOT NULL
)`

const insertEntry = `
INSERT INTO quote_log (
	sheet_id, sheet_name, logged_at, customer_phone, product_name, size, quantity,
	unit_price, discount_percent, final_unit_price, total_price, payment_method, delivery_label
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// execer is satisfied by *pgxpool.Pool.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Postgres struct {
	pool *pgxpool.Pool
	db   execer
}

// NewPostgres connects to dsn and makes sure the quote_log table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating quote_log table: %w", err)
	}
	return &Postgres{pool: pool, db: pool}, nil
}

// Append inserts one log entry. sheetID and sheetName identify the client
// the entry belongs to.
func (p *Postgres) Append(ctx context.Context, sheetID, sheetName string, e quote.LogEntry) error {
	loggedAt, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return fmt.Errorf("log entry timestamp: %w", err)
	}

	start := time.Now()
	_, err = p.db.Exec(ctx, insertEntry,
		sheetID, sheetName, loggedAt, e.CustomerPhone, e.ProductName, e.Size, e.Quantity,
		e.UnitPrice, e.DiscountPercent, e.FinalUnitPrice, e.TotalPrice, e.PaymentMethod, e.DeliveryLabel,
	)
	metrics.ObserveCall("postgres_append", start, err)
	if err != nil {
		return fmt.Errorf("inserting quote_log row: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
