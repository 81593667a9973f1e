// Package resilient guards a remote table store with a circuit breaker.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// ErrUnavailable is returned while the breaker is open or half-open and saturated.
var ErrUnavailable = errors.New("table store unavailable")

// Settings configures the breaker.
type Settings struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	Timeout     time.Duration // open -> half-open delay
	MaxRequests uint32        // probes allowed while half-open
}

// Store decorates a tablestore.Store.
type Store struct {
	next tablestore.Store
	cb   *gobreaker.CircuitBreaker[tablestore.Table]
}

// Wrap returns next guarded by a breaker built from s.
func Wrap(next tablestore.Store, s Settings, log zerolog.Logger) *Store {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.Name == "" {
		s.Name = "tablestore"
	}
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		// Absent or unknown tables are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, tablestore.ErrNotFound) ||
				errors.Is(err, tablestore.ErrUnknownTable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("table store circuit breaker state changed")
		},
	}
	return &Store{next: next, cb: gobreaker.NewCircuitBreaker[tablestore.Table](settings)}
}

// State reports the breaker state ("closed", "half-open", "open").
func (s *Store) State() string {
	return s.cb.State().String()
}

func (s *Store) Read(ctx context.Context, name tablestore.Name) (tablestore.Table, error) {
	t, err := s.cb.Execute(func() (tablestore.Table, error) {
		return s.next.Read(ctx, name)
	})
	return t, mapBreakerErr(err)
}

func (s *Store) Write(ctx context.Context, tables ...tablestore.Table) error {
	_, err := s.cb.Execute(func() (tablestore.Table, error) {
		return tablestore.Table{}, s.next.Write(ctx, tables...)
	})
	return mapBreakerErr(err)
}

func mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
