// Package tablestore is the Postgres implementation of the ledger table port.
package tablestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/TresYap/sakaydb/internal/adapters/postgres"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// Store is a Postgres implementation of tablestore.Store.
// A multi-table Write runs in a single transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Read(ctx context.Context, name tablestore.Name) (tablestore.Table, error) {
	if s.pool == nil {
		return tablestore.Table{}, errors.New("nil postgres pool")
	}
	if !name.Valid() {
		return tablestore.Table{}, fmt.Errorf("%w: %q", tablestore.ErrUnknownTable, name)
	}
	t := tablestore.Table{Name: name}
	err := s.pool.QueryRow(ctx, `SELECT columns FROM ledger_tables WHERE name = $1`, string(name)).Scan(&t.Columns)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tablestore.Table{}, tablestore.ErrNotFound
		}
		// Nothing was ever written to an unmigrated database.
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UndefinedTableCode {
			return tablestore.Table{}, tablestore.ErrNotFound
		}
		return tablestore.Table{}, fmt.Errorf("select %s header: %w", name, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT cells
		FROM ledger_rows
		WHERE table_name = $1
		ORDER BY row_no
	`, string(name))
	if err != nil {
		return tablestore.Table{}, fmt.Errorf("select %s rows: %w", name, err)
	}
	cells, err := pgx.CollectRows(rows, pgx.RowTo[[]string])
	if err != nil {
		return tablestore.Table{}, fmt.Errorf("scan %s rows: %w", name, err)
	}
	if len(cells) > 0 {
		t.Rows = cells
	}
	return t, nil
}

func (s *Store) Write(ctx context.Context, tables ...tablestore.Table) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, t := range tables {
			if err := writeTable(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTable(ctx context.Context, tx pgx.Tx, t tablestore.Table) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_tables (name, columns) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET columns = EXCLUDED.columns
	`, string(t.Name), t.Columns)
	if err != nil {
		return fmt.Errorf("upsert %s header: %w", t.Name, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_rows WHERE table_name = $1`, string(t.Name)); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}
	if len(t.Rows) == 0 {
		return nil
	}
	src := make([][]any, 0, len(t.Rows))
	for i, r := range t.Rows {
		src = append(src, []any{string(t.Name), int32(i), r})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ledger_rows"},
		[]string{"table_name", "row_no", "cells"},
		pgx.CopyFromRows(src),
	); err != nil {
		return fmt.Errorf("copy %s rows: %w", t.Name, err)
	}
	return nil
}
