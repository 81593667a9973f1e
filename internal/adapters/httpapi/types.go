package httpapi

import (
	"bytes"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/TresYap/sakaydb/internal/app/ledger"
	"github.com/TresYap/sakaydb/internal/domain"
)

type TripRequest struct {
	DriverName      string   `json:"driverName" validate:"required"`
	PickupDatetime  string   `json:"pickupDatetime" validate:"required"`
	DropoffDatetime string   `json:"dropoffDatetime" validate:"required"`
	PassengerCount  *int     `json:"passengerCount" validate:"required,gte=0"`
	PickupLocName   string   `json:"pickupLocName" validate:"required"`
	DropoffLocName  string   `json:"dropoffLocName" validate:"required"`
	TripDistance    *float64 `json:"tripDistance" validate:"required"`
	FareAmount      *float64 `json:"fareAmount" validate:"required"`
}

func (t TripRequest) toInput() ledger.TripInput {
	in := ledger.TripInput{
		DriverName:      t.DriverName,
		PickupDatetime:  t.PickupDatetime,
		DropoffDatetime: t.DropoffDatetime,
		PickupLocName:   t.PickupLocName,
		DropoffLocName:  t.DropoffLocName,
	}
	if t.PassengerCount != nil {
		in.PassengerCount = *t.PassengerCount
	}
	if t.TripDistance != nil {
		in.TripDistance = *t.TripDistance
	}
	if t.FareAmount != nil {
		in.FareAmount = *t.FareAmount
	}
	return in
}

type TripCreated struct {
	TripID int64 `json:"tripId"`
}

type BatchRequest struct {
	Trips []TripRequest `json:"trips" validate:"required"`
}

type BatchResponse struct {
	TripIDs []int64 `json:"tripIds"`
}

// PredicateRequest is one search filter. Value is a number, a string, or a
// two-element array of number/string/null for an inclusive range.
type PredicateRequest struct {
	Field string          `json:"field" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

type SearchRequest struct {
	Predicates []PredicateRequest `json:"predicates" validate:"dive"`
}

// TripRow mirrors a trips table row.
type TripRow struct {
	TripID          int64   `json:"trip_id"`
	DriverID        int64   `json:"driver_id"`
	PickupDatetime  string  `json:"pickup_datetime"`
	DropoffDatetime string  `json:"dropoff_datetime"`
	PassengerCount  int     `json:"passenger_count"`
	PickupLocID     int64   `json:"pickup_loc_id"`
	DropoffLocID    int64   `json:"dropoff_loc_id"`
	TripDistance    float64 `json:"trip_distance"`
	FareAmount      float64 `json:"fare_amount"`
}

func tripRowFromDomain(t domain.Trip) TripRow {
	return TripRow{
		TripID:          int64(t.ID),
		DriverID:        int64(t.DriverID),
		PickupDatetime:  domain.FormatTimestamp(t.PickupAt),
		DropoffDatetime: domain.FormatTimestamp(t.DropoffAt),
		PassengerCount:  t.PassengerCount,
		PickupLocID:     int64(t.PickupLocID),
		DropoffLocID:    int64(t.DropoffLocID),
		TripDistance:    t.TripDistance,
		FareAmount:      t.FareAmount,
	}
}

type SearchResponse struct {
	Trips []TripRow `json:"trips"`
}

// ExportRecord mirrors ledger.ExportColumns.
type ExportRecord struct {
	DropoffLocName  string  `json:"dropoff_loc_name"`
	PassengerCount  int     `json:"passenger_count"`
	TripDistance    float64 `json:"trip_distance"`
	DropoffDatetime string  `json:"dropoff_datetime"`
	FareAmount      float64 `json:"fare_amount"`
	DriverLastName  string  `json:"driver_lastname"`
	PickupLocName   string  `json:"pickup_loc_name"`
	DriverGivenName string  `json:"driver_givenname"`
	PickupDatetime  string  `json:"pickup_datetime"`
}

func exportRecordFromRow(r ledger.ExportRow) ExportRecord {
	return ExportRecord{
		DropoffLocName:  r.DropoffLocName,
		PassengerCount:  r.PassengerCount,
		TripDistance:    r.TripDistance,
		DropoffDatetime: domain.FormatTimestamp(r.DropoffAt),
		FareAmount:      r.FareAmount,
		DriverLastName:  r.DriverLastName,
		PickupLocName:   r.PickupLocName,
		DriverGivenName: r.DriverGivenName,
		PickupDatetime:  domain.FormatTimestamp(r.PickupAt),
	}
}

type ExportResponse struct {
	Columns []string       `json:"columns"`
	Rows    []ExportRecord `json:"rows"`
}

// statGroup is one keyed entry of a grouped statistics object.
type statGroup struct {
	key   string
	means ledger.WeekdayMeans
}

// passengerGroups orders groups by passenger count.
func passengerGroups(in map[int]ledger.WeekdayMeans) []statGroup {
	keys := make([]int, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]statGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, statGroup{key: strconv.Itoa(k), means: in[k]})
	}
	return out
}

func driverGroups(in map[string]ledger.WeekdayMeans) []statGroup {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]statGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, statGroup{key: k, means: in[k]})
	}
	return out
}

// groupsJSON renders groups as one object. WeekdayMeans is written through its
// own MarshalJSON so the encoder never walks a map-typed marshaler.
func groupsJSON(groups []statGroup) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.key)
		if err != nil {
			return nil, err
		}
		means, err := g.means.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(means)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// statisticsBody renders GenerateStatistics output for the requested stat.
// stat=all is {"trip":...,"passenger":...,"driver":...}.
func statisticsBody(s ledger.Statistics) ([]byte, error) {
	switch s.Stat {
	case ledger.StatTrip:
		return s.Trip.MarshalJSON()
	case ledger.StatPassenger:
		return groupsJSON(passengerGroups(s.Passenger))
	case ledger.StatDriver:
		return groupsJSON(driverGroups(s.Driver))
	}

	trip, err := s.Trip.MarshalJSON()
	if err != nil {
		return nil, err
	}
	passenger, err := groupsJSON(passengerGroups(s.Passenger))
	if err != nil {
		return nil, err
	}
	driver, err := groupsJSON(driverGroups(s.Driver))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"trip":`)
	buf.Write(trip)
	buf.WriteString(`,"passenger":`)
	buf.Write(passenger)
	buf.WriteString(`,"driver":`)
	buf.Write(driver)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
