// Package dbtest connects integration tests to a disposable Postgres database.
// Tests are skipped when TEST_DB_DSN is not set.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/stay-search-backend/internal/db"
)

const lockKey int64 = 7340211

// Pool returns a pool with the search schema applied and all tables emptied.
// The pool is closed when the test finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	// Walk up to find a .env at the module root; missing files are fine.
	for _, dir := range []string{".", "..", "../..", "../../.."} {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn, 4)
	require.NoError(t, err, "Unable to connect to database")
	t.Cleanup(pool.Close)

	// Packages run in parallel against the same database; serialize them.
	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockKey)
	require.NoError(t, err, "Failed to acquire test lock")
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", lockKey)
		conn.Release()
	})

	require.NoError(t, db.EnsureSchema(ctx, pool))
	clearTables(t, pool)

	return pool
}

func clearTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	queries := []string{
		"TRUNCATE TABLE public.blocked_days",
		"TRUNCATE TABLE public.reservations",
		"TRUNCATE TABLE public.experiences",
		"TRUNCATE TABLE public.properties",
	}
	for _, q := range queries {
		_, err := pool.Exec(context.Background(), q)
		require.NoError(t, err, "Failed to clean table")
	}
}
