//go:build !integration

package web_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// memSubscriptionRepo backs the HTTP tests with real use-case wiring.
type memSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

// Save enforces the one-open-subscription-per-user uniqueness rule the real
// schema implements with a partial unique index.
func (m *memSubscriptionRepo) Save(_ context.Context, _ repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	open := map[model.SubscriptionStatus]bool{}
	for _, st := range model.OpenStatuses() {
		open[st] = true
	}
	if _, exists := m.store[s.ID]; !exists && open[s.Status] {
		for _, other := range m.store {
			if other.UserID == s.UserID && open[other.Status] {
				return domain.ErrAlreadySubscribed
			}
		}
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) LockUser(context.Context, repository.Tx, string) error { return nil }

func (m *memSubscriptionRepo) FindOpenByUser(_ context.Context, _ repository.Tx, userID string) (*model.Subscription, error) {
	statuses := map[model.SubscriptionStatus]bool{}
	for _, st := range model.OpenStatuses() {
		statuses[st] = true
	}
	return m.findLatest(userID, statuses)
}

func (m *memSubscriptionRepo) FindActiveByUser(_ context.Context, _ repository.Tx, userID string) (*model.Subscription, error) {
	return m.findLatest(userID, map[model.SubscriptionStatus]bool{model.SubscriptionStatusActive: true})
}

func (m *memSubscriptionRepo) FindByPaymentIntent(_ context.Context, _ repository.Tx, intentID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.PaymentIntentID == intentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubscriptionRepo) FindLatestByUser(_ context.Context, _ repository.Tx, userID string) (*model.Subscription, error) {
	return m.findLatest(userID, map[model.SubscriptionStatus]bool{
		model.SubscriptionStatusActive:   true,
		model.SubscriptionStatusTrialing: true,
		model.SubscriptionStatusPastDue:  true,
		model.SubscriptionStatusCanceled: true,
	})
}

func (m *memSubscriptionRepo) FindDueCancellations(_ context.Context, _ repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusCanceledAtPeriodEnd && s.CancelAt != nil && !s.CancelAt.After(now) {
			cp := *s
			due = append(due, &cp)
			if len(due) == limit {
				break
			}
		}
	}
	if len(due) == 0 {
		return nil, domain.ErrNotFound
	}
	return due, nil
}

func (m *memSubscriptionRepo) CountByStatus(context.Context, repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range m.store {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *memSubscriptionRepo) findLatest(userID string, statuses map[model.SubscriptionStatus]bool) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Subscription
	for _, s := range m.store {
		if s.UserID != userID || !statuses[s.Status] {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(_ context.Context, _ repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Email == u.Email && existing.ID != u.ID {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// memIdemStore implements the idempotency port without Redis.
type memIdemStore struct {
	mu     sync.RWMutex
	store  map[string]*repository.StoredResponse
	getErr error
}

func newMemIdemStore() *memIdemStore {
	return &memIdemStore{store: make(map[string]*repository.StoredResponse)}
}

func (m *memIdemStore) Get(_ context.Context, key string) (*repository.StoredResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp, ok := m.store[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return resp, nil
}

func (m *memIdemStore) Put(_ context.Context, key string, resp *repository.StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = resp
	return nil
}

// denyAllLimiter rejects every attempt; used by the rate-limit test.
type denyAllLimiter struct{}

func (denyAllLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

// brokenLimiter simulates a limiter backend outage.
type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
