package ledger

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/TresYap/sakaydb/internal/domain"
)

// Stat selects which weekday statistics to compute.
type Stat int

const (
	StatTrip Stat = iota + 1
	StatPassenger
	StatDriver
	StatAll
)

func (s Stat) String() string {
	switch s {
	case StatTrip:
		return "trip"
	case StatPassenger:
		return "passenger"
	case StatDriver:
		return "driver"
	case StatAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseStat accepts trip, passenger, driver or all.
func ParseStat(s string) (Stat, error) {
	for _, st := range []Stat{StatTrip, StatPassenger, StatDriver, StatAll} {
		if s == st.String() {
			return st, nil
		}
	}
	return 0, validationError(map[string]any{"stat": "must be one of: trip passenger driver all"}, "unknown stat %q", s)
}

// WeekOrder is the reporting order of weekdays.
var WeekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayMeans maps a weekday to its mean daily trip count. Weekdays with no
// observed trips are absent rather than zero.
type WeekdayMeans map[time.Weekday]float64

// WeekdayMean is one entry of WeekdayMeans.Ordered.
type WeekdayMean struct {
	Weekday time.Weekday
	Mean    float64
}

// Ordered lists the present weekdays Monday first.
func (m WeekdayMeans) Ordered() []WeekdayMean {
	out := make([]WeekdayMean, 0, len(m))
	for _, d := range WeekOrder {
		if v, ok := m[d]; ok {
			out = append(out, WeekdayMean{Weekday: d, Mean: v})
		}
	}
	return out
}

// MarshalJSON writes an object keyed by weekday name in WeekOrder.
func (m WeekdayMeans) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.Ordered() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(e.Weekday.String()))
		buf.WriteByte(':')
		buf.WriteString(domain.FormatFloat(e.Mean))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Statistics holds the requested groups; the others stay nil.
type Statistics struct {
	Stat      Stat
	Trip      WeekdayMeans
	Passenger map[int]WeekdayMeans
	Driver    map[string]WeekdayMeans
}

// GenerateStatistics computes mean daily trip counts per weekday, overall
// (trip), per passenger count (passenger) or per driver display name (driver).
// Any absent table yields empty results for the requested stats.
func (s *Service) GenerateStatistics(ctx context.Context, stat Stat) (Statistics, error) {
	if stat < StatTrip || stat > StatAll {
		return Statistics{}, validationError(map[string]any{"stat": "must be one of: trip passenger driver all"}, "unknown stat %d", int(stat))
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return Statistics{}, err
	}

	out := Statistics{Stat: stat}
	want := func(st Stat) bool { return stat == st || stat == StatAll }
	ok := snap.HasAllTables()

	if want(StatTrip) {
		out.Trip = WeekdayMeans{}
		if ok {
			out.Trip = weekdayMeans(snap.Trips, func(domain.Trip) (struct{}, bool) { return struct{}{}, true })[struct{}{}]
			if out.Trip == nil {
				out.Trip = WeekdayMeans{}
			}
		}
	}
	if want(StatPassenger) {
		out.Passenger = map[int]WeekdayMeans{}
		if ok {
			out.Passenger = weekdayMeans(snap.Trips, func(t domain.Trip) (int, bool) { return t.PassengerCount, true })
		}
	}
	if want(StatDriver) {
		out.Driver = map[string]WeekdayMeans{}
		if ok {
			drivers := snap.DriverByID()
			out.Driver = weekdayMeans(snap.Trips, func(t domain.Trip) (string, bool) {
				d, found := drivers[t.DriverID]
				if !found {
					return "", false
				}
				return d.DisplayName(), true
			})
		}
	}
	return out, nil
}

// weekdayMeans buckets trips per (group, pickup day), counting distinct trip
// ids, then averages the daily counts per (group, weekday) over the days on
// which the group had trips.
func weekdayMeans[K comparable](trips []domain.Trip, group func(domain.Trip) (K, bool)) map[K]WeekdayMeans {
	type bucket struct {
		key K
		day time.Time
	}
	daily := make(map[bucket]map[domain.TripID]struct{})
	for _, t := range trips {
		k, ok := group(t)
		if !ok {
			continue
		}
		b := bucket{key: k, day: domain.Day(t.PickupAt)}
		if daily[b] == nil {
			daily[b] = make(map[domain.TripID]struct{})
		}
		daily[b][t.ID] = struct{}{}
	}

	type acc struct {
		sum  float64
		days int
	}
	sums := make(map[K]map[time.Weekday]*acc)
	for b, ids := range daily {
		if sums[b.key] == nil {
			sums[b.key] = make(map[time.Weekday]*acc)
		}
		a := sums[b.key][b.day.Weekday()]
		if a == nil {
			a = &acc{}
			sums[b.key][b.day.Weekday()] = a
		}
		a.sum += float64(len(ids))
		a.days++
	}

	out := make(map[K]WeekdayMeans, len(sums))
	for k, byDay := range sums {
		m := make(WeekdayMeans, len(byDay))
		for wd, a := range byDay {
			m[wd] = a.sum / float64(a.days)
		}
		out[k] = m
	}
	return out
}
