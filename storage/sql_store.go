package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tirebot/models"
)

// dialect captures the few statements that differ between drivers.
type dialect struct {
	name   string
	schema string
	insert string
	touch  string
}

// SQLStore is a DealStore backed by database/sql. Uniqueness is enforced
// by an index over (url, coalesce(price_cents, -1)) so an unknown price is
// a key value like any other.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, d: d}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("%s: migrate: %w", d.name, err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.d.schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Upsert inserts the listing; on a uniqueness conflict it touches
// last_seen_at of the existing row and reports false.
func (s *SQLStore) Upsert(ctx context.Context, l *models.Listing) (bool, error) {
	if l == nil || l.URL == "" {
		return false, fmt.Errorf("%s: upsert: listing without url", s.d.name)
	}

	price := nullPrice(l.PriceMinor)
	res, err := s.db.ExecContext(ctx, s.d.insert, l.URL, l.Title, price, l.Source)
	if err != nil {
		return false, fmt.Errorf("%s: insert deal: %w", s.d.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: insert deal: %w", s.d.name, err)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := s.db.ExecContext(ctx, s.d.touch, l.URL, price); err != nil {
		return false, fmt.Errorf("%s: touch deal: %w", s.d.name, err)
	}
	return false, nil
}

// Count returns how many rows the deals table holds.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count deals: %w", s.d.name, err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullPrice(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
