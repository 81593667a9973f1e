package ledger_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/TresYap/sakaydb/internal/app/ledger"
)

func route(pickup, dropoff, pickupAt, dropoffAt string, fare float64) ledger.TripInput {
	in := cruzTrip()
	in.PickupLocName = pickup
	in.DropoffLocName = dropoff
	in.PickupDatetime = pickupAt
	in.DropoffDatetime = dropoffAt
	in.FareAmount = fare
	return in
}

func TestGenerateODMatrix_SingleTrip(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, ledger.EntityStoreOptions{})
	mustAdd(t, svc, route("A", "B", "08:00:00,01-01-2021", "08:30:00,01-01-2021", 1))

	m, err := svc.GenerateODMatrix(context.Background(), ledger.AllDates)
	if err != nil {
		t.Fatalf("GenerateODMatrix: %v", err)
	}
	if !reflect.DeepEqual(m.Rows, []string{"B"}) || !reflect.DeepEqual(m.Columns, []string{"A"}) {
		t.Fatalf("rows=%v cols=%v", m.Rows, m.Columns)
	}
	if v, ok := m.At("B", "A"); !ok || v != 1.0 {
		t.Fatalf("B/A=%v ok=%v", v, ok)
	}
}

func TestGenerateODMatrix_PivotsAndAverages(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, ledger.EntityStoreOptions{})
	mustAdd(t, svc, route("Mall", "Airport", "08:00:00,01-01-2021", "08:30:00,01-01-2021", 1))
	mustAdd(t, svc, route("Mall", "Airport", "09:00:00,01-01-2021", "09:30:00,01-01-2021", 2))
	mustAdd(t, svc, route("Mall", "Airport", "09:00:00,02-01-2021", "09:30:00,02-01-2021", 3))
	mustAdd(t, svc, route("Airport", "Port", "10:00:00,02-01-2021", "10:30:00,02-01-2021", 4))

	m, err := svc.GenerateODMatrix(context.Background(), ledger.AllDates)
	if err != nil {
		t.Fatalf("GenerateODMatrix: %v", err)
	}
	if !reflect.DeepEqual(m.Rows, []string{"Airport", "Port"}) || !reflect.DeepEqual(m.Columns, []string{"Airport", "Mall"}) {
		t.Fatalf("rows=%v cols=%v", m.Rows, m.Columns)
	}
	want := [][]float64{
		{0, 1.5},
		{1, 0},
	}
	if !reflect.DeepEqual(m.Cells, want) {
		t.Fatalf("cells=%v, want %v", m.Cells, want)
	}
}

func TestGenerateODMatrix_DateFilters(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, ledger.EntityStoreOptions{})
	mustAdd(t, svc, route("A", "B", "08:00:00,01-01-2021", "08:30:00,01-01-2021", 1))
	mustAdd(t, svc, route("A", "C", "23:50:00,02-01-2021", "00:20:00,03-01-2021", 2))
	mustAdd(t, svc, route("A", "D", "08:00:00,04-01-2021", "08:30:00,04-01-2021", 3))

	cases := []struct {
		name       string
		start, end *string
		wantRows   []string
	}{
		{"start only keeps later pickups", ptr("00:00:00,02-01-2021"), nil, []string{"C", "D"}},
		{"end only bounds pickup", nil, ptr("23:55:00,02-01-2021"), []string{"B", "C"}},
		{"both bound pickup and dropoff", ptr("00:00:00,01-01-2021"), ptr("23:59:59,02-01-2021"), []string{"B"}},
		{"inclusive bounds", ptr("08:00:00,04-01-2021"), ptr("08:30:00,04-01-2021"), []string{"D"}},
	}
	for _, tc := range cases {
		r, err := ledger.NewDateRange(tc.start, tc.end)
		if err != nil {
			t.Fatalf("%s: NewDateRange: %v", tc.name, err)
		}
		m, err := svc.GenerateODMatrix(context.Background(), r)
		if err != nil {
			t.Fatalf("%s: GenerateODMatrix: %v", tc.name, err)
		}
		if !reflect.DeepEqual(m.Rows, tc.wantRows) {
			t.Fatalf("%s: rows=%v, want %v", tc.name, m.Rows, tc.wantRows)
		}
	}
}

func TestGenerateODMatrix_EmptyCases(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, ledger.EntityStoreOptions{})
	m, err := svc.GenerateODMatrix(context.Background(), ledger.AllDates)
	if err != nil {
		t.Fatalf("absent table: %v", err)
	}
	if len(m.Rows) != 0 || len(m.Columns) != 0 || len(m.Cells) != 0 || m.Rows == nil {
		t.Fatalf("m=%+v", m)
	}

	mustAdd(t, svc, route("A", "B", "08:00:00,01-01-2021", "08:30:00,01-01-2021", 1))
	r, err := ledger.NewDateRange(ptr("00:00:00,01-01-2030"), nil)
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	m, err = svc.GenerateODMatrix(context.Background(), r)
	if err != nil || len(m.Rows) != 0 {
		t.Fatalf("m=%+v err=%v", m, err)
	}
}

func TestDateRange_Validation(t *testing.T) {
	t.Parallel()

	if _, err := ledger.NewDateRange(nil, nil); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("both nil err=%v", err)
	}
	if _, err := ledger.NewDateRange(ptr("01-01-2021"), nil); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("bad start err=%v", err)
	}
	if _, err := ledger.NewDateRange(nil, ptr("tomorrow")); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("bad end err=%v", err)
	}
	three := []*string{ptr("08:00:00,01-01-2021"), nil, ptr("08:00:00,02-01-2021")}
	if _, err := ledger.DateRangeFromBounds(three); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("three bounds err=%v", err)
	}
	r, err := ledger.DateRangeFromBounds([]*string{nil, ptr("08:00:00,02-01-2021")})
	if err != nil || r.IsAll() {
		t.Fatalf("r=%+v err=%v", r, err)
	}
	if !ledger.AllDates.IsAll() {
		t.Fatalf("AllDates must not filter")
	}
}
