package web

import (
	"bytes"
	"errors"
	"net/http"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/infra/logging"
	"subscription-billing/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// IdempotencyHeader carries the client-supplied dedup key.
const IdempotencyHeader = "Idempotency-Key"

// Idempotency wraps a mutating handler with response caching keyed by the
// Idempotency-Key header. A stored response is replayed verbatim without
// invoking the handler; without a key the middleware is a passthrough.
// Only success-class (2xx) responses are stored, so a failed attempt may be
// retried under the same key.
//
// Two concurrent requests with the same fresh key can both miss the lookup
// and both execute; the subscription conflict check plus the storage
// uniqueness constraint are the correctness backstop. This guard exists for
// retried clients, not as a distributed lock.
func Idempotency(store repository.IdempotencyStore, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			l := logging.With(ctx, logger)

			stored, err := store.Get(ctx, key)
			if err == nil {
				metrics.IncIdempotency("hit")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotency-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}
			if !errors.Is(err, domain.ErrNotFound) {
				// Degrade to executing the operation; the state machine's
				// own conflict check catches a harmful re-execution.
				metrics.IncIdempotency("store_error")
				l.Warn().Err(err).Msg("idempotency lookup failed")
			} else {
				metrics.IncIdempotency("miss")
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.status >= 200 && cw.status < 300 {
				resp := &repository.StoredResponse{Status: cw.status, Body: cw.body.Bytes()}
				if err := store.Put(ctx, key, resp); err != nil {
					l.Warn().Err(err).Msg("failed to save idempotency record")
				}
			}
		})
	}
}

// captureWriter tees the response body so a successful response can be
// stored after the handler returns.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
