package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	csvstore "github.com/TresYap/sakaydb/internal/adapters/csvfile/tablestore"
	memidempotency "github.com/TresYap/sakaydb/internal/adapters/memory/idempotency"
	memstore "github.com/TresYap/sakaydb/internal/adapters/memory/tablestore"
	postgres "github.com/TresYap/sakaydb/internal/adapters/postgres"
	pgidempotency "github.com/TresYap/sakaydb/internal/adapters/postgres/idempotency"
	pgstore "github.com/TresYap/sakaydb/internal/adapters/postgres/tablestore"
	"github.com/TresYap/sakaydb/internal/adapters/resilient"
	s3store "github.com/TresYap/sakaydb/internal/adapters/s3/tablestore"
	sqlitestore "github.com/TresYap/sakaydb/internal/adapters/sqlite/tablestore"
	"github.com/TresYap/sakaydb/internal/platform/config"
	"github.com/TresYap/sakaydb/internal/ports/out/idempotency"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// stores bundles the persistence the API runs on.
type stores struct {
	Tables tablestore.Store
	Replay idempotency.Store
	Close  func()
}

// openStores builds the configured table backend and a replay store for
// Idempotency-Key handling. Postgres keeps replay records in the same
// database; every other backend keeps them in memory. Network backends sit
// behind a circuit breaker.
func openStores(ctx context.Context, cfg config.Config, logger zerolog.Logger) (stores, error) {
	sc := cfg.Storage
	out := stores{Replay: memidempotency.NewStore(), Close: func() {}}
	breaker := resilient.Settings{
		Name:        sc.Backend,
		MaxFailures: sc.Breaker.MaxFailures,
		Timeout:     sc.Breaker.Timeout,
	}

	switch sc.Backend {
	case config.BackendMemory:
		out.Tables = memstore.NewStore()

	case config.BackendCSV:
		s, err := csvstore.NewStore(sc.DataDir)
		if err != nil {
			return stores{}, fmt.Errorf("open csv store: %w", err)
		}
		out.Tables = s

	case config.BackendSQLite:
		s, err := sqlitestore.Open(ctx, sc.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("open sqlite store: %w", err)
		}
		out.Tables = s
		out.Close = func() { _ = s.Close() }

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, sc.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return stores{}, fmt.Errorf("invalid postgres config: %w", err)
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrate postgres: %w", err)
		}
		if err := pgidempotency.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrate postgres: %w", err)
		}
		out.Tables = resilient.Wrap(pgstore.NewStore(pool), breaker, logger)
		out.Replay = pgidempotency.NewStore(pool)
		out.Close = pool.Close

	case config.BackendS3:
		s, err := s3store.New(ctx, s3store.Config{
			Bucket:          sc.S3.Bucket,
			Region:          sc.S3.Region,
			Endpoint:        sc.S3.Endpoint,
			Prefix:          sc.S3.Prefix,
			PathStyle:       sc.S3.PathStyle,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: sc.S3.SecretAccessKey,
		})
		if err != nil {
			return stores{}, fmt.Errorf("open s3 store: %w", err)
		}
		out.Tables = resilient.Wrap(s, breaker, logger)

	default:
		return stores{}, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
	return out, nil
}
