package contracttest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

type CleanupFunc = func()

type TableStoreFactory func(t *testing.T) (tablestore.Store, CleanupFunc)

// RunTableStore exercises the tablestore.Store semantics the ledger relies on.
// Each subtest gets a fresh store from newStore.
func RunTableStore(t *testing.T, newStore TableStoreFactory) {
	t.Helper()

	open := func(t *testing.T) tablestore.Store {
		t.Helper()
		s, cleanup := newStore(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		return s
	}

	t.Run("absent tables report ErrNotFound", func(t *testing.T) {
		s := open(t)
		for _, name := range tablestore.Names {
			if _, err := s.Read(context.Background(), name); !errors.Is(err, tablestore.ErrNotFound) {
				t.Fatalf("Read(%s) err=%v, want ErrNotFound", name, err)
			}
		}
	})

	t.Run("header-only table is present and empty", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		in := tablestore.Table{Name: tablestore.Drivers, Columns: []string{"driver_id", "given_name", "last_name"}}
		if err := s.Write(ctx, in); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := s.Read(ctx, tablestore.Drivers)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !reflect.DeepEqual(got.Columns, in.Columns) {
			t.Fatalf("columns=%v, want %v", got.Columns, in.Columns)
		}
		if len(got.Rows) != 0 {
			t.Fatalf("rows=%v, want none", got.Rows)
		}
	})

	t.Run("round trip preserves order and cell text", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		trips := tablestore.Table{
			Name:    tablestore.Trips,
			Columns: []string{"trip_id", "driver_id", "pickup_datetime", "dropoff_datetime", "passenger_count", "pickup_loc_id", "dropoff_loc_id", "trip_distance", "fare_amount"},
			Rows: [][]string{
				{"2", "1", "08:00:00,01-01-2021", "08:20:00,01-01-2021", "2", "1", "2", "5.0", "120.0"},
				{"1", "1", "09:00:00,02-01-2021", "09:45:00,02-01-2021", "1", "2", "1", "12.5", "310.25"},
			},
		}
		drivers := tablestore.Table{
			Name:    tablestore.Drivers,
			Columns: []string{"driver_id", "given_name", "last_name"},
			Rows:    [][]string{{"1", "Juan", "Dela Cruz"}},
		}
		locations := tablestore.Table{
			Name:    tablestore.Locations,
			Columns: []string{"location_id", "loc_name"},
			Rows:    [][]string{{"1", "SM, North \"EDSA\""}, {"2", "Ñaic"}},
		}
		if err := s.Write(ctx, trips, drivers, locations); err != nil {
			t.Fatalf("Write: %v", err)
		}
		for _, want := range []tablestore.Table{trips, drivers, locations} {
			got, err := s.Read(ctx, want.Name)
			if err != nil {
				t.Fatalf("Read(%s): %v", want.Name, err)
			}
			if got.Name != want.Name {
				t.Fatalf("name=%s, want %s", got.Name, want.Name)
			}
			if !reflect.DeepEqual(got.Columns, want.Columns) {
				t.Fatalf("%s columns=%v, want %v", want.Name, got.Columns, want.Columns)
			}
			if !reflect.DeepEqual(got.Rows, want.Rows) {
				t.Fatalf("%s rows=%v, want %v", want.Name, got.Rows, want.Rows)
			}
		}
	})

	t.Run("write replaces table wholesale", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		cols := []string{"location_id", "loc_name"}
		if err := s.Write(ctx, tablestore.Table{Name: tablestore.Locations, Columns: cols, Rows: [][]string{{"1", "A"}, {"2", "B"}}}); err != nil {
			t.Fatalf("Write 1: %v", err)
		}
		if err := s.Write(ctx, tablestore.Table{Name: tablestore.Locations, Columns: cols, Rows: [][]string{{"2", "B"}}}); err != nil {
			t.Fatalf("Write 2: %v", err)
		}
		got, err := s.Read(ctx, tablestore.Locations)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !reflect.DeepEqual(got.Rows, [][]string{{"2", "B"}}) {
			t.Fatalf("rows=%v", got.Rows)
		}
	})

	t.Run("invalid batch writes nothing", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		good := tablestore.Table{Name: tablestore.Locations, Columns: []string{"location_id", "loc_name"}, Rows: [][]string{{"1", "A"}}}
		bad := tablestore.Table{Name: tablestore.Drivers, Columns: []string{"driver_id", "given_name", "last_name"}, Rows: [][]string{{"1", "only-two"}}}
		if err := s.Write(ctx, good, bad); err == nil {
			t.Fatalf("expected error for ragged row")
		}
		if _, err := s.Read(ctx, tablestore.Locations); !errors.Is(err, tablestore.ErrNotFound) {
			t.Fatalf("Read(locations) err=%v, want ErrNotFound", err)
		}
	})

	t.Run("unknown table name is rejected", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		if err := s.Write(ctx, tablestore.Table{Name: "rides", Columns: []string{"id"}}); !errors.Is(err, tablestore.ErrUnknownTable) {
			t.Fatalf("Write err=%v, want ErrUnknownTable", err)
		}
		if _, err := s.Read(ctx, "rides"); !errors.Is(err, tablestore.ErrUnknownTable) {
			t.Fatalf("Read err=%v, want ErrUnknownTable", err)
		}
	})
}
