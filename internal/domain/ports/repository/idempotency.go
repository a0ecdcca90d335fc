package repository

import "context"

// StoredResponse is the exact response previously returned for an idempotency
// key. Replays must emit it verbatim.
type StoredResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyStore keeps the first successful response per client-supplied
// key for a bounded retention window. Get returns domain.ErrNotFound for
// absent or expired keys; an expired key behaves exactly like a fresh one.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Put(ctx context.Context, key string, resp *StoredResponse) error
}
