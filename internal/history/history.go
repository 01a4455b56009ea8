// Package history persists accepted quotations to PostgreSQL. It is an
// optional collaborator: without a DSN the service runs on the noop sink.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/quote"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("history: pool not configured")

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS gold_quotes (
        id          BIGSERIAL PRIMARY KEY,
        kind        TEXT        NOT NULL,
        price_inr   NUMERIC     NOT NULL,
        price_usd   NUMERIC,
        source      TEXT        NOT NULL,
        degraded    BOOLEAN     NOT NULL DEFAULT FALSE,
        fetched_at  TIMESTAMPTZ NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS gold_quotes_kind_fetched_idx
        ON gold_quotes (kind, fetched_at DESC);`

	insertQuoteSQL = `INSERT INTO gold_quotes (
        kind,
        price_inr,
        price_usd,
        source,
        degraded,
        fetched_at
    ) VALUES ($1,$2,$3,$4,$5,$6);`

	listSinceSQL = `SELECT
        kind,
        price_inr,
        price_usd,
        source,
        degraded,
        fetched_at
    FROM gold_quotes
    WHERE kind = $1
      AND fetched_at >= $2
    ORDER BY fetched_at;`

	listRecentSQL = `SELECT
        kind,
        price_inr,
        price_usd,
        source,
        degraded,
        fetched_at
    FROM gold_quotes
    ORDER BY fetched_at DESC
    LIMIT $1;`
)

// PoolConfig carries the connection knobs.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// Store appends and reads the gold_quotes table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the quotes table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createTableSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Append persists one accepted quotation.
func (s *Store) Append(ctx context.Context, q quote.Quotation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var priceUSD interface{}
	if q.PriceUSD.Sign() > 0 {
		priceUSD = q.PriceUSD.String()
	}

	_, execErr := pool.Exec(ctx, insertQuoteSQL,
		string(q.Kind),
		q.PricePerGram.String(),
		priceUSD,
		q.Source,
		q.Degraded,
		q.FetchedAt,
	)
	if execErr != nil {
		return fmt.Errorf("append quote: %w", execErr)
	}
	return nil
}

// History lists quotations of one kind observed at or after since.
func (s *Store) History(ctx context.Context, kind quote.Kind, since time.Time) ([]quote.Quotation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSinceSQL, string(kind), since)
	if queryErr != nil {
		return nil, fmt.Errorf("list history: %w", queryErr)
	}
	defer rows.Close()

	return collectQuotes(rows, 0)
}

// Recent lists the newest quotations across all kinds.
func (s *Store) Recent(ctx context.Context, limit int) ([]quote.Quotation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent: %w", queryErr)
	}
	defer rows.Close()

	return collectQuotes(rows, limit)
}

func collectQuotes(rows pgx.Rows, capacity int) ([]quote.Quotation, error) {
	quotes := make([]quote.Quotation, 0, capacity)
	for rows.Next() {
		q, scanErr := scanQuote(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		quotes = append(quotes, q)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return quotes, nil
}

func scanQuote(rows pgx.Rows) (quote.Quotation, error) {
	var (
		kind      string
		priceStr  string
		usdStr    *string
		source    string
		degraded  bool
		fetchedAt time.Time
	)

	if err := rows.Scan(&kind, &priceStr, &usdStr, &source, &degraded, &fetchedAt); err != nil {
		return quote.Quotation{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return quote.Quotation{}, fmt.Errorf("parse price: %w", err)
	}

	q := quote.Quotation{
		Kind:         quote.Kind(kind),
		PricePerGram: price,
		Source:       source,
		Degraded:     degraded,
		FetchedAt:    fetchedAt,
	}
	if usdStr != nil {
		usd, convErr := decimal.NewFromString(*usdStr)
		if convErr != nil {
			return quote.Quotation{}, fmt.Errorf("parse usd price: %w", convErr)
		}
		q.PriceUSD = usd
	}
	return q, nil
}
