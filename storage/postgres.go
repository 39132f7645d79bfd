package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"tirebot/utils"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS deals (
			id            BIGSERIAL   PRIMARY KEY,
			url           TEXT        NOT NULL,
			title         TEXT        NOT NULL,
			price_cents   BIGINT,
			source        TEXT,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_url_price ON deals(url, COALESCE(price_cents, -1));
		CREATE INDEX IF NOT EXISTS idx_deals_last_seen ON deals(last_seen_at);
	`,
	insert: `INSERT INTO deals (url, title, price_cents, source) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
	touch:  `UPDATE deals SET last_seen_at = NOW() WHERE url = $1 AND price_cents IS NOT DISTINCT FROM $2`,
}

// OpenPostgres connects to PostgreSQL, waiting for the server to accept
// connections, and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string, logger *utils.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Logger:      logger,
	}
	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	store, err := newSQLStore(ctx, db, postgresDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
