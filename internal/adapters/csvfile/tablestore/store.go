// Package tablestore stores ledger tables as CSV files in one directory
// (trips.csv, drivers.csv, locations.csv).
package tablestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/TresYap/sakaydb/internal/adapters/csvcodec"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// Store is a CSV-directory implementation of tablestore.Store.
// Writes stage every table in a temp file before renaming, so a failed batch
// leaves the previous files in place. It is not safe for concurrent writers.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("csv store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv store: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the CSV files.
func (s *Store) Dir() string { return s.dir }

// PathFor returns the file path used for a table.
func (s *Store) PathFor(name tablestore.Name) string {
	return filepath.Join(s.dir, string(name)+".csv")
}

func (s *Store) Read(ctx context.Context, name tablestore.Name) (tablestore.Table, error) {
	_ = ctx
	if !name.Valid() {
		return tablestore.Table{}, fmt.Errorf("%w: %q", tablestore.ErrUnknownTable, name)
	}
	f, err := os.Open(s.PathFor(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tablestore.Table{}, tablestore.ErrNotFound
		}
		return tablestore.Table{}, err
	}
	defer func() { _ = f.Close() }()
	return csvcodec.Decode(f, name)
}

func (s *Store) Write(ctx context.Context, tables ...tablestore.Table) error {
	_ = ctx
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	staged := make(map[tablestore.Name]string, len(tables))
	cleanup := func() {
		for _, p := range staged {
			_ = os.Remove(p)
		}
	}
	for _, t := range tables {
		tmp := filepath.Join(s.dir, "."+string(t.Name)+"."+uuid.NewString()+".tmp")
		if err := writeFile(tmp, t); err != nil {
			_ = os.Remove(tmp)
			cleanup()
			return fmt.Errorf("stage %s: %w", t.Name, err)
		}
		if prev, ok := staged[t.Name]; ok {
			_ = os.Remove(prev)
		}
		staged[t.Name] = tmp
	}
	for _, t := range tables {
		tmp, ok := staged[t.Name]
		if !ok {
			continue
		}
		if err := os.Rename(tmp, s.PathFor(t.Name)); err != nil {
			cleanup()
			return fmt.Errorf("commit %s: %w", t.Name, err)
		}
		delete(staged, t.Name)
	}
	return nil
}

func writeFile(path string, t tablestore.Table) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := csvcodec.Encode(f, t); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
