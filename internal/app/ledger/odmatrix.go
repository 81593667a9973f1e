package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/TresYap/sakaydb/internal/domain"
)

// DateRange filters trips by pickup/dropoff time. The zero value keeps every trip.
type DateRange struct {
	start *time.Time
	end   *time.Time
}

// AllDates keeps every trip.
var AllDates = DateRange{}

// NewDateRange parses optional bounds in domain.TimestampLayout. At least one
// bound is required; use AllDates for no filtering.
func NewDateRange(start, end *string) (DateRange, error) {
	if start == nil && end == nil {
		return DateRange{}, validationError(map[string]any{"dateRange": "needs at least one bound"}, "date range needs at least one bound")
	}
	var r DateRange
	if start != nil {
		ts, err := domain.ParseTimestamp(*start)
		if err != nil {
			return DateRange{}, validationError(map[string]any{"start": "must match HH:MM:SS,DD-MM-YYYY"}, "%v", err)
		}
		r.start = &ts
	}
	if end != nil {
		ts, err := domain.ParseTimestamp(*end)
		if err != nil {
			return DateRange{}, validationError(map[string]any{"end": "must match HH:MM:SS,DD-MM-YYYY"}, "%v", err)
		}
		r.end = &ts
	}
	return r, nil
}

// DateRangeFromBounds builds a range from a [start, end] pair.
func DateRangeFromBounds(bounds []*string) (DateRange, error) {
	if len(bounds) != 2 {
		return DateRange{}, validationError(map[string]any{"dateRange": "must have exactly two bounds"}, "date range has %d bounds, want 2", len(bounds))
	}
	return NewDateRange(bounds[0], bounds[1])
}

// IsAll reports whether r keeps every trip.
func (r DateRange) IsAll() bool { return r.start == nil && r.end == nil }

// Keep applies the range: start only bounds pickup from below, end only
// bounds pickup from above, and both bound pickup from below and dropoff
// from above.
func (r DateRange) Keep(t domain.Trip) bool {
	switch {
	case r.start != nil && r.end != nil:
		return !t.PickupAt.Before(*r.start) && !t.DropoffAt.After(*r.end)
	case r.start != nil:
		return !t.PickupAt.Before(*r.start)
	case r.end != nil:
		return !t.PickupAt.After(*r.end)
	default:
		return true
	}
}

// ODMatrix holds mean daily trip counts with dropoff locations as rows and
// pickup locations as columns. Labels are sorted; unobserved pairs are 0.
type ODMatrix struct {
	Rows    []string    `json:"rows"`
	Columns []string    `json:"columns"`
	Cells   [][]float64 `json:"cells"`
}

// At returns the cell for a dropoff/pickup pair.
func (m ODMatrix) At(dropoff, pickup string) (float64, bool) {
	i := slices.Index(m.Rows, dropoff)
	j := slices.Index(m.Columns, pickup)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Cells[i][j], true
}

// GenerateODMatrix averages, per (pickup, dropoff) pair, the number of trips
// per pickup day over the days the pair was observed.
func (s *Service) GenerateODMatrix(ctx context.Context, r DateRange) (ODMatrix, error) {
	empty := ODMatrix{Rows: []string{}, Columns: []string{}, Cells: [][]float64{}}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return ODMatrix{}, err
	}
	if !snap.HasTrips() {
		return empty, nil
	}

	type pair struct{ pickup, dropoff string }
	locs := snap.LocationNameByID()
	var kept []domain.Trip
	names := make(map[domain.TripID]pair)
	for _, t := range snap.Trips {
		if !r.Keep(t) {
			continue
		}
		pu, ok := locs[t.PickupLocID]
		if !ok {
			continue
		}
		do, ok := locs[t.DropoffLocID]
		if !ok {
			continue
		}
		kept = append(kept, t)
		names[t.ID] = pair{pickup: pu, dropoff: do}
	}
	if len(kept) == 0 {
		return empty, nil
	}

	type bucket struct {
		p   pair
		day time.Time
	}
	daily := make(map[bucket]int)
	for _, t := range kept {
		daily[bucket{p: names[t.ID], day: domain.Day(t.PickupAt)}]++
	}
	type acc struct{ sum, days int }
	perPair := make(map[pair]*acc)
	for b, n := range daily {
		a := perPair[b.p]
		if a == nil {
			a = &acc{}
			perPair[b.p] = a
		}
		a.sum += n
		a.days++
	}

	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for p := range perPair {
		rowSet[p.dropoff] = struct{}{}
		colSet[p.pickup] = struct{}{}
	}
	m := ODMatrix{Rows: sortedKeys(rowSet), Columns: sortedKeys(colSet)}
	m.Cells = make([][]float64, len(m.Rows))
	for i, do := range m.Rows {
		m.Cells[i] = make([]float64, len(m.Columns))
		for j, pu := range m.Columns {
			if a, ok := perPair[pair{pickup: pu, dropoff: do}]; ok {
				m.Cells[i][j] = float64(a.sum) / float64(a.days)
			}
		}
	}
	return m, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
