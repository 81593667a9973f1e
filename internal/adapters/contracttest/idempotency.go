package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	idempotencyport "github.com/TresYap/sakaydb/internal/ports/out/idempotency"
)

type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

// RunIdempotencyStore checks replay-record semantics: missing keys miss,
// Put overwrites, and every fingerprint field participates in the lookup.
func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key(uuid.NewString()),
		Method:   "POST",
		Route:    "/trips",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get on empty store ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	for name, other := range map[string]idempotencyport.Fingerprint{
		"method":   {Key: fp.Key, Method: "PUT", Route: fp.Route},
		"route":    {Key: fp.Key, Method: fp.Method, Route: "/trips/batch"},
		"bodyHash": {Key: fp.Key, Method: fp.Method, Route: fp.Route, BodyHash: "h"},
		"key":      {Key: "other", Method: fp.Method, Route: fp.Route},
	} {
		if _, ok, err := store.Get(ctx, other); err != nil || ok {
			t.Fatalf("%s: distinct fingerprint matched ok=%v err=%v", name, ok, err)
		}
	}
}
