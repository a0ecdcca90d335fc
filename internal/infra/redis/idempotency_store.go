package redis

import (
	"context"
	"encoding/json"
	"time"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/ports/repository"
)

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps stored responses in Redis. The retention window is
// enforced by the key TTL, so an expired key is simply absent.
type IdempotencyStore struct {
	client Client
	ttl    time.Duration
}

func NewIdempotencyStore(client Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) key(k string) string { return "idem:" + k }

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*repository.StoredResponse, error) {
	data, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var resp repository.StoredResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *IdempotencyStore) Put(ctx context.Context, key string, resp *repository.StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl)
}
