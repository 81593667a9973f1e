package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/TresYap/sakaydb/internal/platform/clock"
	clockport "github.com/TresYap/sakaydb/internal/ports/out/clock"
	"github.com/TresYap/sakaydb/internal/ports/out/idempotency"
)

const (
	idempotencyKeyHeader      = "Idempotency-Key"
	idempotencyReplayedHeader = "Idempotent-Replayed"
)

// IdempotencyOptions enables Idempotency-Key handling on the ingest routes.
// A nil Store disables it.
type IdempotencyOptions struct {
	Store idempotency.Store
	Clock clockport.Clock
	// TTL bounds how long a key is remembered; 0 means forever.
	TTL time.Duration
}

// idempotent replays the stored 2xx response for a repeated (key, route, body)
// and rejects a key reused with a different body.
func idempotent(opts IdempotencyOptions) func(http.Handler) http.Handler {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	fresh := func(rec idempotency.Record) bool { return rec.Fresh(clk.Now(), opts.TTL) }

	return func(next http.Handler) http.Handler {
		if opts.Store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
			if err != nil {
				writeBadRequest(w, r, "unreadable request body")
				return
			}
			if len(body) > maxBodyBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large", nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])

			ctx := r.Context()
			log := loggerFrom(ctx)
			metaFP := idempotency.Fingerprint{
				Key:    idempotency.Key(key),
				Method: r.Method,
				Route:  r.URL.Path,
			}
			meta, ok, err := opts.Store.Get(ctx, metaFP)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			if ok && fresh(meta) {
				if string(meta.Body) != bodyHash {
					writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
					return
				}
			} else if err := opts.Store.Put(ctx, metaFP, idempotency.Record{
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   clk.Now(),
			}); err != nil {
				log.Warn().Err(err).Msg("store idempotency key")
			}

			respFP := metaFP
			respFP.BodyHash = bodyHash
			rec, ok, err := opts.Store.Get(ctx, respFP)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			if ok && rec.Replayable() && fresh(rec) {
				w.Header().Set("Content-Type", rec.ContentType)
				w.Header().Set(idempotencyReplayedHeader, "true")
				w.WriteHeader(rec.StatusCode)
				_, _ = w.Write(rec.Body)
				return
			}

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			out := idempotency.Record{
				StatusCode:  ww.Status(),
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
				CreatedAt:   clk.Now(),
			}
			if !out.Replayable() {
				return
			}
			if err := opts.Store.Put(ctx, respFP, out); err != nil {
				log.Warn().Err(err).Msg("store idempotent response")
			}
		})
	}
}
