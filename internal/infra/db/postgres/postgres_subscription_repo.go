package postgres

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

const subCols = `id, user_id, plan_id, status, payment_intent_id, current_period_end, cancel_at, created_at, updated_at`

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, plan_id, status, payment_intent_id, current_period_end, cancel_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  status=$4, current_period_end=$6, cancel_at=$7, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.PlanID, s.Status, s.PaymentIntentID, s.CurrentPeriodEnd, s.CancelAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		case uniqueViolation(err):
			// Either the partial unique index on open records or the
			// payment intent index fired; both mean a competing record won.
			return domain.ErrAlreadySubscribed
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// LockUser takes a per-user advisory xact lock; it is released when the
// enclosing transaction ends. Outside a transaction this is a no-op.
func (r *subscriptionRepo) LockUser(ctx context.Context, tx repository.Tx, userID string) error {
	if _, ok := tx.(pgx.Tx); !ok {
		return nil
	}
	_, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1)`, hashToInt64(userID))
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindOpenByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subCols + `
  FROM subscriptions
 WHERE user_id=$1
   AND status IN ('pending','active','trialing','past_due','canceled_at_period_end')
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subCols + `
  FROM subscriptions
 WHERE user_id=$1 AND status='active'
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindByPaymentIntent(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subCols + `
  FROM subscriptions
 WHERE payment_intent_id=$1;`
	return r.queryOne(ctx, tx, q, paymentIntentID)
}

func (r *subscriptionRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subCols + `
  FROM subscriptions
 WHERE user_id=$1
   AND status IN ('active','trialing','past_due','canceled')
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindDueCancellations(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subCols + `
  FROM subscriptions
 WHERE status='canceled_at_period_end' AND cancel_at <= $1
 ORDER BY cancel_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSub(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSub(row rowScanner) (*model.Subscription, error) {
	s := &model.Subscription{}
	var status string
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &status, &s.PaymentIntentID,
		&s.CurrentPeriodEnd, &s.CancelAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
