package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doorstep-cart/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates a PostgreSQL connection pool for the postgres store
// driver and verifies connectivity.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// postgresKV implements KV on a PostgreSQL table. It backs cart snapshots
// server-side so a customer's draft survives across devices, with the same
// write-whole-value discipline as the other backends.
type postgresKV struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres creates a PostgreSQL-backed KV and ensures its table exists.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (KV, error) {
	kv := &postgresKV{
		pool:   pool,
		logger: logger.With().Str("component", "postgres-store").Logger(),
	}

	if err := kv.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return kv, nil
}

// ensureSchema creates the snapshot table if it is missing.
func (p *postgresKV) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS cart_snapshots (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`

	if _, err := p.pool.Exec(ctx, query); err != nil {
		p.logger.Error().Err(err).Msg("failed to create cart_snapshots table")
		return fmt.Errorf("failed to create cart_snapshots table: %w", err)
	}
	return nil
}

// Get retrieves the value for a key.
func (p *postgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM cart_snapshots WHERE key = $1`

	var value []byte
	err := p.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		p.logger.Error().Err(err).Str("key", key).Msg("failed to read snapshot row")
		return nil, false, fmt.Errorf("failed to read snapshot for %s: %w", key, err)
	}
	return value, true, nil
}

// Put upserts the value for a key.
func (p *postgresKV) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO cart_snapshots (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := p.pool.Exec(ctx, query, key, value, time.Now()); err != nil {
		p.logger.Error().Err(err).Str("key", key).Msg("failed to write snapshot row")
		return fmt.Errorf("failed to write snapshot for %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for a key.
func (p *postgresKV) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM cart_snapshots WHERE key = $1`

	if _, err := p.pool.Exec(ctx, query, key); err != nil {
		p.logger.Error().Err(err).Str("key", key).Msg("failed to delete snapshot row")
		return fmt.Errorf("failed to delete snapshot for %s: %w", key, err)
	}
	return nil
}
