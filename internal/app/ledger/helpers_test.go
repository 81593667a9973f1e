package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	memstore "github.com/TresYap/sakaydb/internal/adapters/memory/tablestore"
	"github.com/TresYap/sakaydb/internal/app/ledger"
	"github.com/TresYap/sakaydb/internal/domain"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

func newService(t *testing.T, opts ledger.EntityStoreOptions) (*ledger.Service, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	return ledger.NewService(ledger.NewEntityStore(store, opts), zerolog.Nop()), store
}

func cruzTrip() ledger.TripInput {
	return ledger.TripInput{
		DriverName:      "Cruz, Juan",
		PickupDatetime:  "08:00:00,01-01-2021",
		DropoffDatetime: "08:20:00,01-01-2021",
		PassengerCount:  2,
		PickupLocName:   "Mall",
		DropoffLocName:  "Airport",
		TripDistance:    5.0,
		FareAmount:      120.0,
	}
}

func mustAdd(t *testing.T, svc *ledger.Service, in ledger.TripInput) domain.TripID {
	t.Helper()
	id, err := svc.AddTrip(context.Background(), in)
	if err != nil {
		t.Fatalf("AddTrip(%+v): %v", in, err)
	}
	return id
}

func mustRead(t *testing.T, store tablestore.Store, name tablestore.Name) tablestore.Table {
	t.Helper()
	tbl, err := store.Read(context.Background(), name)
	if err != nil {
		t.Fatalf("Read(%s): %v", name, err)
	}
	return tbl
}

func mustWrite(t *testing.T, store tablestore.Store, tables ...tablestore.Table) {
	t.Helper()
	if err := store.Write(context.Background(), tables...); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

// flakyStore fails every Write after the first okWrites.
type flakyStore struct {
	*memstore.Store
	okWrites int
	writes   int
}

var errDiskFull = errors.New("disk full")

func (f *flakyStore) Write(ctx context.Context, tables ...tablestore.Table) error {
	f.writes++
	if f.writes > f.okWrites {
		return errDiskFull
	}
	return f.Store.Write(ctx, tables...)
}

func ptr(s string) *string { return &s }

func val(v ledger.Value) *ledger.Value { return &v }
