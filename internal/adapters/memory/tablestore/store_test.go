package tablestore

import (
	"context"
	"errors"
	"testing"

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

func TestStore_ReadReturnsIsolatedCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()
	in := tablestore.Table{
		Name:    tablestore.Locations,
		Columns: []string{"location_id", "loc_name"},
		Rows:    [][]string{{"1", "Mall"}},
	}
	if err := s.Write(ctx, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	in.Rows[0][1] = "mutated"

	got, err := s.Read(ctx, tablestore.Locations)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got.Rows[0][1] = "mutated again"

	again, _ := s.Read(ctx, tablestore.Locations)
	if again.Rows[0][1] != "Mall" {
		t.Fatalf("stored cell=%q, want Mall", again.Rows[0][1])
	}
}

func TestStore_Drop(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()
	_ = s.Write(ctx, tablestore.Table{Name: tablestore.Trips, Columns: []string{"trip_id"}})
	s.Drop(tablestore.Trips)

	if _, err := s.Read(ctx, tablestore.Trips); !errors.Is(err, tablestore.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}
