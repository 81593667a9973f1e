// Package tablestore persists ledger tables in a SQLite database.
//
// Every ledger table is kept as registry metadata (its header) plus ordered
// rows of JSON-encoded cells, so the stored text matches the CSV backend.
package tablestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_tables (
	name    TEXT PRIMARY KEY,
	columns TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_rows (
	table_name TEXT    NOT NULL REFERENCES ledger_tables(name),
	row_no     INTEGER NOT NULL,
	cells      TEXT    NOT NULL,
	PRIMARY KEY (table_name, row_no)
);`

// Store is a SQLite implementation of tablestore.Store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the SQLite database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "sakaydb.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writes serialized inside the process.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func (s *Store) Read(ctx context.Context, name tablestore.Name) (tablestore.Table, error) {
	if !name.Valid() {
		return tablestore.Table{}, fmt.Errorf("%w: %q", tablestore.ErrUnknownTable, name)
	}
	var rawCols string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM ledger_tables WHERE name = ?`, string(name)).Scan(&rawCols)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tablestore.Table{}, tablestore.ErrNotFound
		}
		return tablestore.Table{}, fmt.Errorf("select %s header: %w", name, err)
	}
	t := tablestore.Table{Name: name}
	if err := json.Unmarshal([]byte(rawCols), &t.Columns); err != nil {
		return tablestore.Table{}, fmt.Errorf("decode %s header: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM ledger_rows WHERE table_name = ? ORDER BY row_no`, string(name))
	if err != nil {
		return tablestore.Table{}, fmt.Errorf("select %s rows: %w", name, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return tablestore.Table{}, fmt.Errorf("scan: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return tablestore.Table{}, fmt.Errorf("decode %s row: %w", name, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, rows.Err()
}

func (s *Store) Write(ctx context.Context, tables ...tablestore.Table) (retErr error) {
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, t := range tables {
		if err := writeTable(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func writeTable(ctx context.Context, tx *sql.Tx, t tablestore.Table) error {
	cols, err := json.Marshal(t.Columns)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO ledger_tables(name, columns) VALUES(?, ?)
		ON CONFLICT(name) DO UPDATE SET columns = excluded.columns`, string(t.Name), string(cols)); err != nil {
		return fmt.Errorf("upsert %s header: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE table_name = ?`, string(t.Name)); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ledger_rows(table_name, row_no, cells) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for i, r := range t.Rows {
		cells, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, string(t.Name), i, string(cells)); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
		}
	}
	return nil
}
