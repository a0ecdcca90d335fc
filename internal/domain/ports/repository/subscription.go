package repository

import (
	"context"
	"time"

	"subscription-billing/internal/domain/model"
)

// SubscriptionRepository is the port for subscription persistence. All
// methods return domain.ErrNotFound when no row matches.
type SubscriptionRepository interface {
	// Save inserts or updates a record keyed by id.
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error

	// LockUser serializes concurrent mutations for one user within the
	// enclosing transaction. No-op outside a transaction.
	LockUser(ctx context.Context, tx Tx, userID string) error

	// FindOpenByUser returns the user's record whose status is in
	// model.OpenStatuses, if any.
	FindOpenByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)

	// FindActiveByUser returns the user's most recent active record.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)

	// FindByPaymentIntent is the webhook reconciliation lookup.
	FindByPaymentIntent(ctx context.Context, tx Tx, paymentIntentID string) (*model.Subscription, error)

	// FindLatestByUser returns the most recently created record among
	// active, trialing, past_due and canceled.
	FindLatestByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)

	// FindDueCancellations lists canceled_at_period_end records whose
	// effective date has arrived.
	FindDueCancellations(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Subscription, error)

	// CountByStatus feeds the status gauge.
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
