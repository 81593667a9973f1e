package idempotency

import (
	"context"
	"time"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request for replay purposes.
//
// Method is the HTTP method and Route the request path (e.g. "/trips/batch"). A fingerprint
// with an empty BodyHash holds the body hash first seen for the key, so a key
// reused with a different payload can be rejected.
type Fingerprint struct {
	Key      Key
	Method   string
	Route    string
	BodyHash string
}

// Record is either a stored response or, under a meta fingerprint, the body
// hash first seen for a key (StatusCode 0).
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Fresh reports whether r is still replayable at now. A ttl <= 0 never expires.
func (r Record) Fresh(now time.Time, ttl time.Duration) bool {
	return ttl <= 0 || now.Sub(r.CreatedAt) <= ttl
}

// Replayable reports whether r holds a response worth replaying.
func (r Record) Replayable() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Store persists idempotency records. Put overwrites.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
