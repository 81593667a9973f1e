package tablestore

import (
	"context"
	"fmt"
)

// Name identifies one of the ledger tables.
type Name string

const (
	Trips     Name = "trips"
	Drivers   Name = "drivers"
	Locations Name = "locations"
)

// Names lists every ledger table in commit order.
var Names = []Name{Trips, Drivers, Locations}

// Valid reports whether n is one of the ledger tables.
func (n Name) Valid() bool {
	switch n {
	case Trips, Drivers, Locations:
		return true
	default:
		return false
	}
}

// Table is the persistence shape of a ledger table: a header plus string cells.
// Cells hold the serialized representation (timestamps, floats) so every
// backend stores the same text.
type Table struct {
	Name    Name
	Columns []string
	Rows    [][]string
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	cp := Table{Name: t.Name}
	if t.Columns != nil {
		cp.Columns = append([]string(nil), t.Columns...)
	}
	if t.Rows != nil {
		cp.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			cp.Rows[i] = append([]string(nil), r...)
		}
	}
	return cp
}

// Validate checks the table name and that every row matches the header width.
func (t Table) Validate() error {
	if !t.Name.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTable, t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return fmt.Errorf("table %s: row %d has %d cells, want %d", t.Name, i, len(r), len(t.Columns))
		}
	}
	return nil
}

// Store persists whole ledger tables.
//
// Semantics expected by the ledger:
// - Read returns ErrNotFound for a table that was never written (not for an empty one).
// - Write replaces every given table wholesale. Implementations should make a
//   multi-table Write all-or-nothing where the medium allows it.
type Store interface {
	Read(ctx context.Context, name Name) (Table, error)
	Write(ctx context.Context, tables ...Table) error
}
