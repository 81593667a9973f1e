// Package ledger implements the trip ledger: ingestion and deletion through
// the EntityStore, trip search, export, and the weekday aggregates.
//
// Every operation loads a fresh Snapshot; nothing is cached between calls.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TresYap/sakaydb/internal/domain"
	"github.com/TresYap/sakaydb/internal/platform/metrics"
)

type Service struct {
	store *EntityStore
	log   zerolog.Logger
}

func NewService(store *EntityStore, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// TripInput is a trip as submitted: names instead of ids and timestamps in
// domain.TimestampLayout.
type TripInput struct {
	DriverName      string
	PickupDatetime  string
	DropoffDatetime string
	PassengerCount  int
	PickupLocName   string
	DropoffLocName  string
	TripDistance    float64
	FareAmount      float64
}

// AddTrip records one trip and returns its id.
func (s *Service) AddTrip(ctx context.Context, in TripInput) (domain.TripID, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	id, err := addToSnapshot(snap, in)
	if err != nil {
		return 0, err
	}
	if err := s.store.Commit(ctx, snap); err != nil {
		return 0, err
	}
	metrics.TripsIngested.Inc()
	return id, nil
}

// AddTrips adds each record in order and returns the ids of those that were
// committed. Duplicate and invalid records are logged and skipped; a storage
// failure stops the batch and is returned with the ids committed so far.
func (s *Service) AddTrips(ctx context.Context, in []TripInput) ([]domain.TripID, error) {
	ids := make([]domain.TripID, 0, len(in))
	for i, rec := range in {
		id, err := s.AddTrip(ctx, rec)
		if err == nil {
			ids = append(ids, id)
			continue
		}

		var le *Error
		if !errors.As(err, &le) || (le.Kind != KindDuplicateTrip && le.Kind != KindValidation) {
			return ids, fmt.Errorf("add trip record %d: %w", i, err)
		}
		reason := metrics.SkipValidation
		if le.Kind == KindDuplicateTrip {
			reason = metrics.SkipDuplicate
		}
		metrics.TripsSkipped.WithLabelValues(reason).Inc()
		s.log.Warn().
			Int("index", i).
			Str("code", le.Code).
			Str("driver", rec.DriverName).
			Err(err).
			Msg("skipping trip record")
	}
	return ids, nil
}

// DeleteTrip removes exactly one trip. Drivers and locations are left in place.
func (s *Service) DeleteTrip(ctx context.Context, id domain.TripID) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if !snap.HasTrips() || !snap.RemoveTrip(id) {
		return notFoundError(int64(id))
	}
	if err := s.store.Commit(ctx, snap); err != nil {
		return err
	}
	metrics.TripsDeleted.Inc()
	return nil
}

func addToSnapshot(snap *Snapshot, in TripInput) (domain.TripID, error) {
	details := map[string]any{}
	pickupAt, err := domain.ParseTimestamp(in.PickupDatetime)
	if err != nil {
		details["pickupDatetime"] = "must match HH:MM:SS,DD-MM-YYYY"
	}
	dropoffAt, err := domain.ParseTimestamp(in.DropoffDatetime)
	if err != nil {
		details["dropoffDatetime"] = "must match HH:MM:SS,DD-MM-YYYY"
	}
	if in.PassengerCount < 0 {
		details["passengerCount"] = "must be greater than or equal to 0"
	}
	if len(details) > 0 {
		return 0, validationError(details, "invalid trip")
	}

	driverID, err := snap.ResolveOrCreateDriver(in.DriverName)
	if err != nil {
		return 0, err
	}
	pickupID, dropoffID, err := snap.ResolveTripLocations(in.PickupLocName, in.DropoffLocName)
	if err != nil {
		return 0, err
	}
	return snap.AppendTrip(domain.TripPayload{
		DriverID:       driverID,
		PickupAt:       pickupAt,
		DropoffAt:      dropoffAt,
		PassengerCount: in.PassengerCount,
		PickupLocID:    pickupID,
		DropoffLocID:   dropoffID,
		TripDistance:   in.TripDistance,
		FareAmount:     in.FareAmount,
	})
}
