package sched

import (
	"context"
	"time"

	"subscription-billing/internal/infra/metrics"
	"subscription-billing/internal/usecase"

	"github.com/rs/zerolog"
)

// PeriodEndWorker periodically finalizes cancellations whose effective date
// has arrived, moving canceled_at_period_end records to canceled. It also
// refreshes the subscriptions-by-status gauge.
type PeriodEndWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	log      *zerolog.Logger
}

func NewPeriodEndWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *PeriodEndWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "PeriodEndWorker").Logger()
	return &PeriodEndWorker{interval: interval, subUC: subUC, log: &l}
}

func (w *PeriodEndWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting period-end worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping period-end worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PeriodEndWorker) tick(ctx context.Context) {
	n, err := w.subUC.FinishScheduledCancellations(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("period-end worker error")
	}
	if n > 0 {
		metrics.IncSubscriptionsFinalized(n)
		w.log.Info().Int("count", n).Msg("scheduled cancellations finalized")
	}

	if counts, err := w.subUC.CountByStatus(ctx); err == nil {
		metrics.SetSubscriptionsTotal(counts)
	}
}
