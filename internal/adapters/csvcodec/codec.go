// Package csvcodec converts ledger tables to and from CSV bytes.
// The first record is the header.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// ContentType is the MIME type of encoded tables.
const ContentType = "text/csv"

// ErrEmpty is returned when decoding input without a header record.
var ErrEmpty = errors.New("csv: missing header")

// Encode writes t as CSV with a header record.
func Encode(w io.Writer, t tablestore.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return cw.Error()
}

// Marshal is Encode into a byte slice.
func Marshal(t tablestore.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a CSV table. Every record must have as many fields as the header.
func Decode(r io.Reader, name tablestore.Name) (tablestore.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return tablestore.Table{}, fmt.Errorf("%s: %w", name, ErrEmpty)
		}
		return tablestore.Table{}, fmt.Errorf("%s: read header: %w", name, err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return tablestore.Table{}, fmt.Errorf("%s: read rows: %w", name, err)
	}
	return tablestore.Table{Name: name, Columns: header, Rows: rows}, nil
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(b []byte, name tablestore.Name) (tablestore.Table, error) {
	return Decode(bytes.NewReader(b), name)
}
