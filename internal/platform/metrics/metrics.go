// Package metrics defines the prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons for TripsSkipped.
const (
	SkipDuplicate  = "duplicate"
	SkipValidation = "validation"
)

var (
	TripsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sakaydb_trips_ingested_total",
		Help: "Trips committed to the ledger.",
	})

	TripsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sakaydb_trips_skipped_total",
		Help: "Batch records skipped during ingestion.",
	}, []string{"reason"})

	TripsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sakaydb_trips_deleted_total",
		Help: "Trips removed from the ledger.",
	})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sakaydb_store_operation_duration_seconds",
		Help:    "Duration of table store loads and commits.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sakaydb_http_requests_total",
		Help: "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})
)

// ObserveStore records the duration of a store operation started at start.
func ObserveStore(op string, start time.Time) {
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordRequest counts one finished HTTP request.
func RecordRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
