package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterOptions struct {
	Logger zerolog.Logger
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Idempotency       IdempotencyOptions
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	// Infra endpoints are not rate limited.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			window := opts.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, window))
		}

		ingest := r.With(idempotent(opts.Idempotency))
		ingest.Post("/trips", s.AddTrip)
		ingest.Post("/trips/batch", s.AddTrips)
		r.Post("/trips/search", s.SearchTrips)
		r.Delete("/trips/{tripId}", s.DeleteTrip)
		r.Get("/export", s.ExportData)
		r.Get("/statistics", s.GenerateStatistics)
		r.Get("/odmatrix", s.GenerateODMatrix)
	})
	return r
}
