package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	memidempotency "github.com/TresYap/sakaydb/internal/adapters/memory/idempotency"
	"github.com/TresYap/sakaydb/internal/platform/clock"
	clockport "github.com/TresYap/sakaydb/internal/ports/out/clock"
)

func newIdempotentRouter(t *testing.T, ttl time.Duration) (http.Handler, *clock.ManualClock, *memidempotency.Store) {
	t.Helper()
	clk := clock.NewManualClock(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memidempotency.NewStore()
	h := newTestRouter(t, nil, RouterOptions{Idempotency: IdempotencyOptions{Store: store, Clock: clk, TTL: ttl}})
	return h, clk, store
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	h, _, store := newIdempotentRouter(t, time.Hour)
	hdr := map[string]string{idempotencyKeyHeader: "k-1"}

	first := doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr)
	if first.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", first.Code, first.Body.String())
	}
	again := doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr)
	if again.Code != http.StatusCreated || again.Body.String() != first.Body.String() {
		t.Fatalf("replay status=%d body=%s", again.Code, again.Body.String())
	}
	if again.Header().Get(idempotencyReplayedHeader) != "true" {
		t.Fatalf("missing replay header")
	}
	if store.Len() != 2 {
		t.Fatalf("records=%d, want meta and response", store.Len())
	}

	// Without the key the same payload is a duplicate trip.
	expectError(t, do(t, h, http.MethodPost, "/trips", cruzTripJSON), http.StatusConflict, "DUPLICATE_TRIP")
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()

	h, _, _ := newIdempotentRouter(t, time.Hour)
	hdr := map[string]string{idempotencyKeyHeader: "k-1"}

	doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr)
	other := strings.Replace(cruzTripJSON, `"passengerCount":2`, `"passengerCount":3`, 1)
	expectError(t, doWithHeaders(t, h, http.MethodPost, "/trips", other, hdr), http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	// Keys are scoped per route.
	rr := doWithHeaders(t, h, http.MethodPost, "/trips/batch", `{"trips":[`+other+`]}`, hdr)
	if rr.Code != http.StatusOK {
		t.Fatalf("batch status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestIdempotency_ErrorsAreNotReplayed(t *testing.T) {
	t.Parallel()

	h, _, _ := newIdempotentRouter(t, time.Hour)
	hdr := map[string]string{idempotencyKeyHeader: "k-err"}
	bad := strings.Replace(cruzTripJSON, "08:00:00,01-01-2021", "not a time", 1)

	for i := 0; i < 2; i++ {
		rr := doWithHeaders(t, h, http.MethodPost, "/trips", bad, hdr)
		expectError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
		if rr.Header().Get(idempotencyReplayedHeader) != "" {
			t.Fatalf("attempt %d: error response replayed", i)
		}
	}
}

func TestIdempotency_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	h, clk, _ := newIdempotentRouter(t, time.Hour)
	hdr := map[string]string{idempotencyKeyHeader: "k-ttl"}

	doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr)
	clk.Advance(2 * time.Hour)

	// The key is forgotten, so the request reaches the ledger again.
	expectError(t, doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr), http.StatusConflict, "DUPLICATE_TRIP")
}

func TestIdempotency_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clockport.Func(func() time.Time {
		now = now.Add(24 * time.Hour)
		return now
	})
	h := newTestRouter(t, nil, RouterOptions{Idempotency: IdempotencyOptions{Store: memidempotency.NewStore(), Clock: clk}})
	hdr := map[string]string{idempotencyKeyHeader: "k-forever"}

	doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr)
	rr := doWithHeaders(t, h, http.MethodPost, "/trips", cruzTripJSON, hdr)
	if rr.Code != http.StatusCreated || rr.Header().Get(idempotencyReplayedHeader) != "true" {
		t.Fatalf("status=%d replayed=%q", rr.Code, rr.Header().Get(idempotencyReplayedHeader))
	}
}
