package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS deals (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			url           TEXT     NOT NULL,
			title         TEXT     NOT NULL,
			price_cents   INTEGER,
			source        TEXT,
			first_seen_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_url_price ON deals(url, COALESCE(price_cents, -1));
		CREATE INDEX IF NOT EXISTS idx_deals_last_seen ON deals(last_seen_at);
	`,
	insert: `INSERT INTO deals (url, title, price_cents, source) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
	touch:  `UPDATE deals SET last_seen_at = CURRENT_TIMESTAMP WHERE url = ? AND price_cents IS ?`,
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// migrates the schema. ":memory:" gives a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer per run; a single connection also keeps :memory: databases
	// from splitting across the pool.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	store, err := newSQLStore(ctx, db, sqliteDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
