package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tirebot/models"
)

func setupSQLite(t testing.TB) *SQLStore {
	store, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func listing(url string, price *int64) *models.Listing {
	return &models.Listing{
		Source:     "test",
		Title:      "Pneu 175/70 R13",
		URL:        url,
		PriceMinor: price,
		WheelSize:  models.Rim13,
	}
}

func TestUpsertIsNewOnlyOnce(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	l := listing("https://loja.com/p/1", models.PriceOf(19990))

	isNew, err := store.Upsert(ctx, l)
	require.NoError(t, err)
	require.True(t, isNew)

	isNew, err = store.Upsert(ctx, l)
	require.NoError(t, err)
	require.False(t, isNew)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUpsertDifferentPriceIsNew(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	isNew, err := store.Upsert(ctx, listing("https://loja.com/p/1", models.PriceOf(19990)))
	require.NoError(t, err)
	require.True(t, isNew)

	isNew, err = store.Upsert(ctx, listing("https://loja.com/p/1", models.PriceOf(19989)))
	require.NoError(t, err)
	require.True(t, isNew)

	// Going back to an old price is not new any more.
	isNew, err = store.Upsert(ctx, listing("https://loja.com/p/1", models.PriceOf(19990)))
	require.NoError(t, err)
	require.False(t, isNew)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestUpsertUnknownPriceIsAKey(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	isNew, err := store.Upsert(ctx, listing("https://loja.com/p/2", nil))
	require.NoError(t, err)
	require.True(t, isNew)

	isNew, err = store.Upsert(ctx, listing("https://loja.com/p/2", nil))
	require.NoError(t, err)
	require.False(t, isNew)

	isNew, err = store.Upsert(ctx, listing("https://loja.com/p/2", models.PriceOf(25000)))
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestUpsertRejectsEmptyURL(t *testing.T) {
	store := setupSQLite(t)
	_, err := store.Upsert(context.Background(), listing("", nil))
	require.Error(t, err)
}

func TestUpsertTouchesExistingRow(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	l := listing("https://loja.com/p/3", models.PriceOf(30000))

	_, err := store.Upsert(ctx, l)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`UPDATE deals SET last_seen_at = '2020-01-01 00:00:00', first_seen_at = '2020-01-01 00:00:00'`)
	require.NoError(t, err)

	isNew, err := store.Upsert(ctx, l)
	require.NoError(t, err)
	require.False(t, isNew)

	var source string
	var price int64
	var touched bool
	err = store.db.QueryRowContext(ctx,
		`SELECT source, price_cents, last_seen_at > first_seen_at FROM deals WHERE url = ?`, l.URL,
	).Scan(&source, &price, &touched)
	require.NoError(t, err)
	require.Equal(t, "test", source)
	require.Equal(t, int64(30000), price)
	require.True(t, touched)
}

func TestSQLiteFilePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.sqlite")
	ctx := context.Background()
	l := listing("https://loja.com/p/4", models.PriceOf(21000))

	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	isNew, err := store.Upsert(ctx, l)
	require.NoError(t, err)
	require.True(t, isNew)
	require.NoError(t, store.Close())

	store, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	isNew, err = store.Upsert(ctx, l)
	require.NoError(t, err)
	require.False(t, isNew)
}
