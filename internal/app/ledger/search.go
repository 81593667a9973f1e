package ledger

import (
	"context"
	"strconv"

	"github.com/TresYap/sakaydb/internal/domain"
)

// Value is a predicate operand: a number or a string.
type Value struct {
	num    float64
	text   string
	isText bool
}

func Number(f float64) Value { return Value{num: f} }
func Int(n int64) Value      { return Value{num: float64(n)} }
func Text(s string) Value    { return Value{text: s, isText: true} }

func (v Value) IsText() bool { return v.isText }

func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

type PredicateKind int

const (
	PredicateEquals PredicateKind = iota + 1
	PredicateBetween
)

// Predicate filters trips on one field: exact equality, or an inclusive
// range where a nil bound is open.
type Predicate struct {
	Field string
	Kind  PredicateKind
	Value Value
	Low   *Value
	High  *Value
}

func Equals(field string, v Value) Predicate {
	return Predicate{Field: field, Kind: PredicateEquals, Value: v}
}

func Between(field string, low, high *Value) Predicate {
	return Predicate{Field: field, Kind: PredicateBetween, Low: low, High: high}
}

type fieldSpec struct {
	date bool
	key  func(domain.Trip) float64
}

// SearchFields lists the fields predicates may name.
var SearchFields = []string{
	"driver_id",
	"pickup_datetime",
	"dropoff_datetime",
	"passenger_count",
	"trip_distance",
	"fare_amount",
}

// Timestamps compare as Unix seconds, which float64 holds exactly.
var searchFields = map[string]fieldSpec{
	"driver_id":        {key: func(t domain.Trip) float64 { return float64(t.DriverID) }},
	"pickup_datetime":  {date: true, key: func(t domain.Trip) float64 { return float64(t.PickupAt.Unix()) }},
	"dropoff_datetime": {date: true, key: func(t domain.Trip) float64 { return float64(t.DropoffAt.Unix()) }},
	"passenger_count":  {key: func(t domain.Trip) float64 { return float64(t.PassengerCount) }},
	"trip_distance":    {key: func(t domain.Trip) float64 { return t.TripDistance }},
	"fare_amount":      {key: func(t domain.Trip) float64 { return t.FareAmount }},
}

type compiledPredicate struct {
	field     fieldSpec
	equals    bool
	eq        float64
	low, high *float64
}

// SearchTrips returns the trips matching every predicate, in stored order.
// Predicates apply left to right; an open range bound takes the min or max
// of the trips still matching at that point. An absent trips table yields no
// rows.
func (s *Service) SearchTrips(ctx context.Context, preds []Predicate) ([]domain.Trip, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.HasTrips() {
		return []domain.Trip{}, nil
	}
	if len(preds) == 0 {
		return nil, validationError(map[string]any{"predicates": "must not be empty"}, "search requires at least one predicate")
	}
	compiled := make([]compiledPredicate, 0, len(preds))
	for _, p := range preds {
		cp, err := compilePredicate(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cp)
	}

	working := append([]domain.Trip(nil), snap.Trips...)
	for _, cp := range compiled {
		working = cp.apply(working)
	}
	if working == nil {
		working = []domain.Trip{}
	}
	return working, nil
}

func compilePredicate(p Predicate) (compiledPredicate, error) {
	spec, ok := searchFields[p.Field]
	if !ok {
		return compiledPredicate{}, validationError(map[string]any{"field": p.Field}, "unknown search field %q", p.Field)
	}
	cp := compiledPredicate{field: spec}
	switch p.Kind {
	case PredicateEquals:
		v, err := operand(p.Field, spec, p.Value)
		if err != nil {
			return cp, err
		}
		cp.equals, cp.eq = true, v
	case PredicateBetween:
		if p.Low == nil && p.High == nil {
			return cp, validationError(map[string]any{"field": p.Field}, "range on %q needs at least one bound", p.Field)
		}
		if p.Low != nil {
			v, err := operand(p.Field, spec, *p.Low)
			if err != nil {
				return cp, err
			}
			cp.low = &v
		}
		if p.High != nil {
			v, err := operand(p.Field, spec, *p.High)
			if err != nil {
				return cp, err
			}
			cp.high = &v
		}
	default:
		return cp, validationError(map[string]any{"field": p.Field}, "unsupported predicate on %q", p.Field)
	}
	return cp, nil
}

func operand(field string, spec fieldSpec, v Value) (float64, error) {
	if !spec.date {
		if v.IsText() {
			return 0, validationError(map[string]any{"field": field}, "%q expects a number, got %q", field, v.text)
		}
		return v.num, nil
	}
	if !v.IsText() {
		return 0, validationError(map[string]any{"field": field}, "%q expects a timestamp string", field)
	}
	ts, err := domain.ParseTimestamp(v.text)
	if err != nil {
		return 0, validationError(map[string]any{"field": field}, "%v", err)
	}
	return float64(ts.Unix()), nil
}

func (cp compiledPredicate) apply(trips []domain.Trip) []domain.Trip {
	if len(trips) == 0 {
		return trips
	}
	if cp.equals {
		return cp.filter(trips, func(k float64) bool { return k == cp.eq })
	}

	lo, hi := cp.field.key(trips[0]), cp.field.key(trips[0])
	for _, t := range trips[1:] {
		k := cp.field.key(t)
		lo, hi = min(lo, k), max(hi, k)
	}
	if cp.low != nil {
		lo = *cp.low
	}
	if cp.high != nil {
		hi = *cp.high
	}
	return cp.filter(trips, func(k float64) bool { return k >= lo && k <= hi })
}

func (cp compiledPredicate) filter(trips []domain.Trip, keep func(float64) bool) []domain.Trip {
	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if keep(cp.field.key(t)) {
			out = append(out, t)
		}
	}
	return out
}
