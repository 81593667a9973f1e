// Package testutil opens Postgres pools for adapter tests.
// Tests are skipped unless DATABASE_URL points at a disposable database.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/TresYap/sakaydb/internal/adapters/postgres"
)

// MigrateFunc applies the schema a test needs.
type MigrateFunc func(ctx context.Context, pool *pgxpool.Pool) error

// OpenMigratedPool connects to DATABASE_URL, applies migrate and closes the pool at test end.
func OpenMigratedPool(t *testing.T, migrate MigrateFunc) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping postgres test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if migrate != nil {
		if err := migrate(ctx, pool); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return pool
}

// Truncate empties the given tables.
func Truncate(t *testing.T, pool *pgxpool.Pool, tables ...string) {
	t.Helper()
	if len(tables) == 0 {
		return
	}
	idents := make([]string, 0, len(tables))
	for _, name := range tables {
		idents = append(idents, pgx.Identifier{name}.Sanitize())
	}
	if _, err := pool.Exec(context.Background(), "TRUNCATE "+strings.Join(idents, ", ")+" CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
