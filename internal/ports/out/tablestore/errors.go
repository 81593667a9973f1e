package tablestore

import "errors"

var (
	// ErrNotFound indicates the requested table has never been written.
	ErrNotFound = errors.New("table not found")

	// ErrUnknownTable indicates a table name outside the ledger schema.
	ErrUnknownTable = errors.New("unknown table")
)
