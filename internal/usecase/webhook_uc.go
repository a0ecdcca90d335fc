// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase reconciles asynchronous provider events into the
// subscription state machine. Events arrive possibly duplicated and possibly
// out of order; reconciliation must tolerate both.
type WebhookUseCase interface {
	HandleEvent(ctx context.Context, event *model.PaymentEvent) error
}

type webhookUC struct {
	subs   repository.SubscriptionRepository
	period time.Duration // billing period granted per successful payment
	log    *zerolog.Logger
}

func NewWebhookUseCase(subs repository.SubscriptionRepository, period time.Duration, logger *zerolog.Logger) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	if period <= 0 {
		period = 30 * 24 * time.Hour
	}
	return &webhookUC{subs: subs, period: period, log: &l}
}

// HandleEvent applies a provider event to the matching subscription record.
// Unhandled event types and events with no matching payment intent are
// swallowed so the provider sees success and does not retry. Replaying an
// event whose target state is already in place is a no-op; in particular a
// duplicate succeeded event does not re-stamp the current period end.
func (u *webhookUC) HandleEvent(ctx context.Context, event *model.PaymentEvent) error {
	if err := event.Validate(); err != nil {
		metrics.IncWebhookEvent("", "invalid")
		return err
	}

	switch event.Type {
	case model.EventPaymentSucceeded, model.EventPaymentFailed:
	default:
		metrics.IncWebhookEvent(event.Type, "ignored")
		u.log.Debug().Str("type", event.Type).Msg("unhandled webhook event type")
		return nil
	}

	intentID := event.Data.Object.ID
	sub, err := u.subs.FindByPaymentIntent(ctx, repository.NoTX, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncWebhookEvent(event.Type, "unmatched")
			u.log.Warn().Str("payment_intent_id", intentID).Msg("no subscription found for payment intent")
			return nil
		}
		return err
	}

	now := time.Now()
	switch event.Type {
	case model.EventPaymentSucceeded:
		if sub.Status == model.SubscriptionStatusActive {
			metrics.IncWebhookEvent(event.Type, "duplicate")
			u.log.Debug().Str("subscription_id", sub.ID).Msg("replayed succeeded event, already active")
			return nil
		}
		sub.Status = model.SubscriptionStatusActive
		periodEnd := now.Add(u.period)
		sub.CurrentPeriodEnd = &periodEnd
	case model.EventPaymentFailed:
		if sub.Status == model.SubscriptionStatusPaymentFailed {
			metrics.IncWebhookEvent(event.Type, "duplicate")
			return nil
		}
		sub.Status = model.SubscriptionStatusPaymentFailed
	}
	sub.UpdatedAt = now

	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return err
	}

	metrics.IncWebhookEvent(event.Type, "applied")
	u.log.Info().Str("subscription_id", sub.ID).Str("user_id", sub.UserID).
		Str("status", string(sub.Status)).Msg("webhook event applied")
	return nil
}
