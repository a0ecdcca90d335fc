//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// mockTxManager runs the callback directly without a real transaction.
type mockTxManager struct{}

func newMockTxManager() *mockTxManager { return &mockTxManager{} }

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// mockSubscriptionRepo is a small in-memory implementation used by unit
// tests. Individual methods can be overridden via the *Func fields.
type mockSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription

	saveCalls int

	SaveFunc                func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindOpenByUserFunc      func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	FindActiveByUserFunc    func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	FindByPaymentIntentFunc func(ctx context.Context, tx repository.Tx, intentID string) (*model.Subscription, error)
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *mockSubscriptionRepo) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *mockSubscriptionRepo) LockUser(ctx context.Context, tx repository.Tx, userID string) error {
	return nil
}

func (m *mockSubscriptionRepo) FindOpenByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindOpenByUserFunc != nil {
		return m.FindOpenByUserFunc(ctx, tx, userID)
	}
	open := map[model.SubscriptionStatus]bool{}
	for _, st := range model.OpenStatuses() {
		open[st] = true
	}
	return m.findLatest(userID, open)
}

func (m *mockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindActiveByUserFunc != nil {
		return m.FindActiveByUserFunc(ctx, tx, userID)
	}
	return m.findLatest(userID, map[model.SubscriptionStatus]bool{model.SubscriptionStatusActive: true})
}

func (m *mockSubscriptionRepo) FindByPaymentIntent(ctx context.Context, tx repository.Tx, intentID string) (*model.Subscription, error) {
	if m.FindByPaymentIntentFunc != nil {
		return m.FindByPaymentIntentFunc(ctx, tx, intentID)
	}
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

func (m *mockSubscriptionRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	return m.findLatest(userID, map[model.SubscriptionStatus]bool{
		model.SubscriptionStatusActive:   true,
		model.SubscriptionStatusTrialing: true,
		model.SubscriptionStatusPastDue:  true,
		model.SubscriptionStatusCanceled: true,
	})
}

func (m *mockSubscriptionRepo) FindDueCancellations(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusCanceledAtPeriodEnd && s.CancelAt != nil && !s.CancelAt.After(now) {
			cp := *s
			due = append(due, &cp)
		}
	}
	if len(due) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CancelAt.Before(*due[j].CancelAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *mockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range m.store {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *mockSubscriptionRepo) findLatest(userID string, statuses map[model.SubscriptionStatus]bool) (*model.Subscription, error) {
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

// mockUserRepo is an in-memory identity store keyed by email.
type mockUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User // by id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{store: make(map[string]*model.User)}
}

func (m *mockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
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

func (m *mockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
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

func (m *mockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// testPlan is the shared plan fixture.
func testPlan() *model.Plan {
	return &model.Plan{
		ID:       "premium-monthly",
		Name:     "Premium Plan",
		Price:    19.99,
		Currency: "EUR",
		Interval: "month",
		Features: []string{"Feature 1", "Feature 2"},
	}
}
