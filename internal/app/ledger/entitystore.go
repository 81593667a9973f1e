package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TresYap/sakaydb/internal/domain"
	"github.com/TresYap/sakaydb/internal/platform/metrics"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

type EntityStoreOptions struct {
	// LegacyLocationPairing assigns a trip's pickup and dropoff ids 1 and 2 when
	// the locations table is empty, even if both names are the same.
	LegacyLocationPairing bool
}

// EntityStore loads and commits the three ledger tables as one typed Snapshot.
type EntityStore struct {
	tables tablestore.Store
	opts   EntityStoreOptions
}

func NewEntityStore(tables tablestore.Store, opts EntityStoreOptions) *EntityStore {
	return &EntityStore{tables: tables, opts: opts}
}

// Snapshot is one operation's private copy of the ledger tables.
// Rows keep their stored order.
type Snapshot struct {
	Trips     []domain.Trip
	Drivers   []domain.Driver
	Locations []domain.Location

	present       map[tablestore.Name]bool
	legacyPairing bool
}

func (s *Snapshot) HasTrips() bool     { return s.present[tablestore.Trips] }
func (s *Snapshot) HasDrivers() bool   { return s.present[tablestore.Drivers] }
func (s *Snapshot) HasLocations() bool { return s.present[tablestore.Locations] }

// HasAllTables reports whether every backing table exists.
func (s *Snapshot) HasAllTables() bool {
	return s.HasTrips() && s.HasDrivers() && s.HasLocations()
}

// Load reads the three tables. Absent tables load as empty and are reported
// by the Has* methods; rows that do not parse are an error.
func (e *EntityStore) Load(ctx context.Context) (*Snapshot, error) {
	defer metrics.ObserveStore("load", time.Now())

	snap := &Snapshot{
		present:       make(map[tablestore.Name]bool, len(tablestore.Names)),
		legacyPairing: e.opts.LegacyLocationPairing,
	}
	for _, name := range tablestore.Names {
		t, err := e.tables.Read(ctx, name)
		if errors.Is(err, tablestore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s table: %w", name, err)
		}
		snap.present[name] = true

		switch name {
		case tablestore.Trips:
			snap.Trips, err = decodeTrips(t)
		case tablestore.Drivers:
			snap.Drivers, err = decodeDrivers(t)
		case tablestore.Locations:
			snap.Locations, err = decodeLocations(t)
		}
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Commit writes all three tables in one backend call.
func (e *EntityStore) Commit(ctx context.Context, snap *Snapshot) error {
	defer metrics.ObserveStore("commit", time.Now())

	if err := e.tables.Write(ctx, encodeTrips(snap.Trips), encodeDrivers(snap.Drivers), encodeLocations(snap.Locations)); err != nil {
		return fmt.Errorf("commit ledger tables: %w", err)
	}
	for _, name := range tablestore.Names {
		snap.present[name] = true
	}
	return nil
}

// ResolveOrCreateDriver returns the id of the driver named "Last, First",
// matching case-insensitively, and appends a new driver when none matches.
func (s *Snapshot) ResolveOrCreateDriver(fullName string) (domain.DriverID, error) {
	last, given, err := domain.ParseDriverName(fullName)
	if err != nil {
		return 0, validationError(map[string]any{"driverName": "must have the form \"Last, First\""}, "invalid driver name: %v", err)
	}
	var maxID domain.DriverID
	for _, d := range s.Drivers {
		if strings.EqualFold(d.LastName, last) && strings.EqualFold(d.GivenName, given) {
			return d.ID, nil
		}
		maxID = max(maxID, d.ID)
	}
	id := maxID + 1
	s.Drivers = append(s.Drivers, domain.Driver{ID: id, GivenName: given, LastName: last})
	return id, nil
}

// ResolveOrCreateLocation returns the id of the location with exactly this
// trimmed name, appending a new location when none matches.
func (s *Snapshot) ResolveOrCreateLocation(name string) (domain.LocationID, error) {
	name = domain.NormalizeLocationName(name)
	if name == "" {
		return 0, validationError(map[string]any{"locationName": "must be non-empty"}, "invalid location name")
	}
	if id, ok := s.findLocation(name); ok {
		return id, nil
	}
	return s.appendLocation(name), nil
}

// ResolveTripLocations resolves a trip's pickup then dropoff location.
func (s *Snapshot) ResolveTripLocations(pickup, dropoff string) (domain.LocationID, domain.LocationID, error) {
	pickup = domain.NormalizeLocationName(pickup)
	dropoff = domain.NormalizeLocationName(dropoff)
	details := map[string]any{}
	if pickup == "" {
		details["pickupLocName"] = "must be non-empty"
	}
	if dropoff == "" {
		details["dropoffLocName"] = "must be non-empty"
	}
	if len(details) > 0 {
		return 0, 0, validationError(details, "invalid location name")
	}

	if s.legacyPairing && len(s.Locations) == 0 {
		return s.appendLocation(pickup), s.appendLocation(dropoff), nil
	}
	pu, err := s.ResolveOrCreateLocation(pickup)
	if err != nil {
		return 0, 0, err
	}
	do, err := s.ResolveOrCreateLocation(dropoff)
	if err != nil {
		return 0, 0, err
	}
	return pu, do, nil
}

func (s *Snapshot) findLocation(name string) (domain.LocationID, bool) {
	for _, l := range s.Locations {
		if l.Name == name {
			return l.ID, true
		}
	}
	return 0, false
}

func (s *Snapshot) appendLocation(name string) domain.LocationID {
	var maxID domain.LocationID
	for _, l := range s.Locations {
		maxID = max(maxID, l.ID)
	}
	id := maxID + 1
	s.Locations = append(s.Locations, domain.Location{ID: id, Name: name})
	return id
}

// AppendTrip assigns the next trip id to p and appends it.
// A payload equal to an existing trip's is a duplicate.
func (s *Snapshot) AppendTrip(p domain.TripPayload) (domain.TripID, error) {
	var maxID domain.TripID
	for _, t := range s.Trips {
		if t.Payload().Equal(p) {
			return 0, duplicateTripError(int64(t.ID))
		}
		maxID = max(maxID, t.ID)
	}
	id := maxID + 1
	s.Trips = append(s.Trips, domain.Trip{ID: id, TripPayload: p})
	return id, nil
}

// RemoveTrip deletes the trip with id and reports whether it existed.
func (s *Snapshot) RemoveTrip(id domain.TripID) bool {
	for i, t := range s.Trips {
		if t.ID == id {
			s.Trips = append(s.Trips[:i], s.Trips[i+1:]...)
			return true
		}
	}
	return false
}

// DriverByID indexes drivers by id.
func (s *Snapshot) DriverByID() map[domain.DriverID]domain.Driver {
	out := make(map[domain.DriverID]domain.Driver, len(s.Drivers))
	for _, d := range s.Drivers {
		out[d.ID] = d
	}
	return out
}

// LocationNameByID indexes location names by id.
func (s *Snapshot) LocationNameByID() map[domain.LocationID]string {
	out := make(map[domain.LocationID]string, len(s.Locations))
	for _, l := range s.Locations {
		out[l.ID] = l.Name
	}
	return out
}

// columnIndexes maps each wanted column to its position in t's header.
func columnIndexes(t tablestore.Table, want []string) ([]int, error) {
	pos := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		pos[strings.TrimSpace(c)] = i
	}
	idx := make([]int, len(want))
	for i, c := range want {
		p, ok := pos[c]
		if !ok {
			return nil, fmt.Errorf("%s table: missing column %q", t.Name, c)
		}
		idx[i] = p
	}
	return idx, nil
}

func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return n, nil
}

func decodeTrips(t tablestore.Table) ([]domain.Trip, error) {
	idx, err := columnIndexes(t, domain.TripColumns)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Trip, 0, len(t.Rows))
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return nil, fmt.Errorf("trips table row %d: %d cells, want %d", i+1, len(r), len(t.Columns))
		}
		trip, err := decodeTrip(r, idx)
		if err != nil {
			return nil, fmt.Errorf("trips table row %d: %w", i+1, err)
		}
		out = append(out, trip)
	}
	return out, nil
}

func decodeTrip(r []string, idx []int) (domain.Trip, error) {
	cell := func(i int) string { return r[idx[i]] }
	var (
		trip domain.Trip
		n    int64
		err  error
	)
	if n, err = parseID(cell(0)); err != nil {
		return trip, err
	}
	trip.ID = domain.TripID(n)
	if n, err = parseID(cell(1)); err != nil {
		return trip, err
	}
	trip.DriverID = domain.DriverID(n)
	if trip.PickupAt, err = domain.ParseTimestamp(cell(2)); err != nil {
		return trip, err
	}
	if trip.DropoffAt, err = domain.ParseTimestamp(cell(3)); err != nil {
		return trip, err
	}
	if n, err = parseID(cell(4)); err != nil {
		return trip, fmt.Errorf("passenger_count: %w", err)
	}
	trip.PassengerCount = int(n)
	if n, err = parseID(cell(5)); err != nil {
		return trip, err
	}
	trip.PickupLocID = domain.LocationID(n)
	if n, err = parseID(cell(6)); err != nil {
		return trip, err
	}
	trip.DropoffLocID = domain.LocationID(n)
	if trip.TripDistance, err = domain.ParseFloat(cell(7)); err != nil {
		return trip, err
	}
	if trip.FareAmount, err = domain.ParseFloat(cell(8)); err != nil {
		return trip, err
	}
	return trip, nil
}

func decodeDrivers(t tablestore.Table) ([]domain.Driver, error) {
	idx, err := columnIndexes(t, domain.DriverColumns)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Driver, 0, len(t.Rows))
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return nil, fmt.Errorf("drivers table row %d: %d cells, want %d", i+1, len(r), len(t.Columns))
		}
		id, err := parseID(r[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("drivers table row %d: %w", i+1, err)
		}
		out = append(out, domain.Driver{ID: domain.DriverID(id), GivenName: r[idx[1]], LastName: r[idx[2]]})
	}
	return out, nil
}

func decodeLocations(t tablestore.Table) ([]domain.Location, error) {
	idx, err := columnIndexes(t, domain.LocationColumns)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Location, 0, len(t.Rows))
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return nil, fmt.Errorf("locations table row %d: %d cells, want %d", i+1, len(r), len(t.Columns))
		}
		id, err := parseID(r[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("locations table row %d: %w", i+1, err)
		}
		out = append(out, domain.Location{ID: domain.LocationID(id), Name: r[idx[1]]})
	}
	return out, nil
}

// tripCells renders a trip in TripColumns order.
func tripCells(t domain.Trip) []string {
	return []string{
		strconv.FormatInt(int64(t.ID), 10),
		strconv.FormatInt(int64(t.DriverID), 10),
		domain.FormatTimestamp(t.PickupAt),
		domain.FormatTimestamp(t.DropoffAt),
		strconv.Itoa(t.PassengerCount),
		strconv.FormatInt(int64(t.PickupLocID), 10),
		strconv.FormatInt(int64(t.DropoffLocID), 10),
		domain.FormatFloat(t.TripDistance),
		domain.FormatFloat(t.FareAmount),
	}
}

func encodeTrips(trips []domain.Trip) tablestore.Table {
	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, tripCells(t))
	}
	return tablestore.Table{Name: tablestore.Trips, Columns: append([]string(nil), domain.TripColumns...), Rows: rows}
}

func encodeDrivers(drivers []domain.Driver) tablestore.Table {
	rows := make([][]string, 0, len(drivers))
	for _, d := range drivers {
		rows = append(rows, []string{strconv.FormatInt(int64(d.ID), 10), d.GivenName, d.LastName})
	}
	return tablestore.Table{Name: tablestore.Drivers, Columns: append([]string(nil), domain.DriverColumns...), Rows: rows}
}

func encodeLocations(locs []domain.Location) tablestore.Table {
	rows := make([][]string, 0, len(locs))
	for _, l := range locs {
		rows = append(rows, []string{strconv.FormatInt(int64(l.ID), 10), l.Name})
	}
	return tablestore.Table{Name: tablestore.Locations, Columns: append([]string(nil), domain.LocationColumns...), Rows: rows}
}
