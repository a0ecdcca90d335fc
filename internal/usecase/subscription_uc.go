// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/infra/logging"
	"subscription-billing/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// InitiateResult is returned to the client after a subscription is initiated;
// the payment URL points at the provider's hosted checkout.
type InitiateResult struct {
	SubscriptionID  string `json:"subscriptionId"`
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentURL      string `json:"paymentUrl"`
}

type CancellationResult struct {
	Status        model.SubscriptionStatus `json:"status"`
	Message       string                   `json:"message"`
	EffectiveDate time.Time                `json:"effectiveDate"`
}

type StatusResult struct {
	Status           model.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time               `json:"currentPeriodEnd,omitempty"`
	PlanID           string                   `json:"planId"`
	PlanName         string                   `json:"planName"`
}

// SubscriptionUseCase owns the subscription lifecycle state machine.
type SubscriptionUseCase interface {
	GetPlan(ctx context.Context) (*model.Plan, error)
	Initiate(ctx context.Context, userID, planID string) (*InitiateResult, error)
	Cancel(ctx context.Context, userID string, effectiveDate *time.Time) (*CancellationResult, error)
	Status(ctx context.Context, userID string) (*StatusResult, error)
	// FinishScheduledCancellations finalizes canceled_at_period_end records
	// whose effective date has arrived. Returns how many were finalized.
	FinishScheduledCancellations(ctx context.Context, now time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}

type subscriptionUC struct {
	subs        repository.SubscriptionRepository
	tm          repository.TransactionManager
	plan        *model.Plan
	checkoutURL string
	log         *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	plan *model.Plan,
	checkoutURL string,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		subs:        subs,
		tm:          tm,
		plan:        plan,
		checkoutURL: checkoutURL,
		log:         &l,
	}
}

func (u *subscriptionUC) GetPlan(ctx context.Context) (*model.Plan, error) {
	if u.plan.IsZero() {
		return nil, domain.ErrNotFound
	}
	return u.plan, nil
}

// newPaymentIntentID mints the opaque correlation key webhooks use to find
// the record. ULIDs keep the ids sortable in provider dashboards.
func newPaymentIntentID() string {
	return "pi_" + ulid.Make().String()
}

// Initiate creates a pending subscription awaiting payment.
// Rules:
// - The plan id must match the configured plan.
// - A user may hold at most one open subscription (pending, active, trialing,
//   past_due or canceled_at_period_end). A scheduled cancellation keeps the
//   record open until the period-end worker finalizes it.
// The check-then-insert pair runs under a per-user advisory xact lock; the
// partial unique index on open records is the storage-level backstop.
func (u *subscriptionUC) Initiate(ctx context.Context, userID, planID string) (*InitiateResult, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Initiate")()

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if planID != u.plan.ID {
		return nil, domain.ErrInvalidPlan
	}

	var res *InitiateResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.LockUser(ctx, tx, userID); err != nil {
			return err
		}

		open, err := u.subs.FindOpenByUser(ctx, tx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if open != nil {
			return domain.ErrAlreadySubscribed
		}

		intentID := newPaymentIntentID()
		sub, err := model.NewSubscription(uuid.NewString(), userID, planID, intentID)
		if err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}

		res = &InitiateResult{
			SubscriptionID:  sub.ID,
			PaymentIntentID: intentID,
			PaymentURL:      fmt.Sprintf("%s/%s", u.checkoutURL, intentID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSubscriptionInitiated()
	u.log.Info().Str("user_id", userID).Str("subscription_id", res.SubscriptionID).
		Str("payment_intent_id", res.PaymentIntentID).Msg("subscription initiated")
	return res, nil
}

// Cancel ends the user's active subscription. A strictly future effective
// date schedules the cancellation for the period end; anything else (nil or
// past) cancels immediately.
func (u *subscriptionUC) Cancel(ctx context.Context, userID string, effectiveDate *time.Time) (*CancellationResult, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()

	sub, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, err
	}

	now := time.Now()
	var res *CancellationResult
	if effectiveDate != nil && effectiveDate.After(now) {
		sub.Status = model.SubscriptionStatusCanceledAtPeriodEnd
		sub.CancelAt = effectiveDate
		res = &CancellationResult{
			Status:        sub.Status,
			Message:       "Subscription will be canceled at the end of the billing period",
			EffectiveDate: *effectiveDate,
		}
		metrics.IncSubscriptionCanceled("scheduled")
	} else {
		sub.Status = model.SubscriptionStatusCanceled
		sub.CancelAt = &now
		res = &CancellationResult{
			Status:        sub.Status,
			Message:       "Subscription has been canceled immediately",
			EffectiveDate: now,
		}
		metrics.IncSubscriptionCanceled("immediate")
	}
	sub.UpdatedAt = now

	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).
		Str("status", string(sub.Status)).Time("effective_date", res.EffectiveDate).
		Msg("subscription canceled")
	return res, nil
}

// Status reports the user's most recently created subscription among active,
// trialing, past_due and canceled. Pending records are intentionally not
// reported; clients poll until the webhook resolves them.
func (u *subscriptionUC) Status(ctx context.Context, userID string) (*StatusResult, error) {
	sub, err := u.subs.FindLatestByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		Status:           sub.Status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		PlanID:           sub.PlanID,
		PlanName:         u.plan.Name,
	}, nil
}

func (u *subscriptionUC) FinishScheduledCancellations(ctx context.Context, now time.Time) (int, error) {
	due, err := u.subs.FindDueCancellations(ctx, repository.NoTX, now, 200)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	finalized := 0
	for _, sub := range due {
		sub.Status = model.SubscriptionStatusCanceled
		sub.UpdatedAt = now
		if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("finalize cancellation failed")
			continue
		}
		finalized++
	}
	return finalized, nil
}

func (u *subscriptionUC) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return u.subs.CountByStatus(ctx, repository.NoTX)
}
