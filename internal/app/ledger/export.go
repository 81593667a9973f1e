package ledger

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/TresYap/sakaydb/internal/domain"
)

// ExportColumns is the column order of an export.
var ExportColumns = []string{
	"dropoff_loc_name",
	"passenger_count",
	"trip_distance",
	"dropoff_datetime",
	"fare_amount",
	"driver_lastname",
	"pickup_loc_name",
	"driver_givenname",
	"pickup_datetime",
}

// ExportRow is one trip joined with its driver and both locations.
type ExportRow struct {
	TripID          domain.TripID
	DropoffLocName  string
	PassengerCount  int
	TripDistance    float64
	DropoffAt       time.Time
	FareAmount      float64
	DriverLastName  string
	PickupLocName   string
	DriverGivenName string
	PickupAt        time.Time
}

// Values renders the row in ExportColumns order.
func (r ExportRow) Values() []string {
	return []string{
		r.DropoffLocName,
		strconv.Itoa(r.PassengerCount),
		domain.FormatFloat(r.TripDistance),
		domain.FormatTimestamp(r.DropoffAt),
		domain.FormatFloat(r.FareAmount),
		r.DriverLastName,
		r.PickupLocName,
		r.DriverGivenName,
		domain.FormatTimestamp(r.PickupAt),
	}
}

// ExportData joins every trip to its driver and locations, ordered by trip id.
// Trips referencing a missing driver or location are left out. The result is
// empty when any table is absent.
func (s *Service) ExportData(ctx context.Context) ([]ExportRow, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.HasAllTables() {
		return []ExportRow{}, nil
	}

	drivers := snap.DriverByID()
	locs := snap.LocationNameByID()
	out := make([]ExportRow, 0, len(snap.Trips))
	for _, t := range snap.Trips {
		d, ok := drivers[t.DriverID]
		if !ok {
			continue
		}
		pickup, ok := locs[t.PickupLocID]
		if !ok {
			continue
		}
		dropoff, ok := locs[t.DropoffLocID]
		if !ok {
			continue
		}
		out = append(out, ExportRow{
			TripID:          t.ID,
			DropoffLocName:  dropoff,
			PassengerCount:  t.PassengerCount,
			TripDistance:    t.TripDistance,
			DropoffAt:       t.DropoffAt,
			FareAmount:      t.FareAmount,
			DriverLastName:  d.LastName,
			PickupLocName:   pickup,
			DriverGivenName: d.GivenName,
			PickupAt:        t.PickupAt,
		})
	}
	slices.SortStableFunc(out, func(a, b ExportRow) int {
		switch {
		case a.TripID < b.TripID:
			return -1
		case a.TripID > b.TripID:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}
