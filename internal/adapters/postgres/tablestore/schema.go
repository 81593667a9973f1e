package tablestore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the ledger storage tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_tables (
	name    TEXT PRIMARY KEY,
	columns TEXT[] NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_rows (
	table_name TEXT    NOT NULL REFERENCES ledger_tables(name) ON DELETE CASCADE,
	row_no     INTEGER NOT NULL,
	cells      TEXT[]  NOT NULL,
	PRIMARY KEY (table_name, row_no)
);`

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}
