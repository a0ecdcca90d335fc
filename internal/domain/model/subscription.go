package model

import (
	"time"

	"subscription-billing/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending             SubscriptionStatus = "pending"
	SubscriptionStatusActive              SubscriptionStatus = "active"
	SubscriptionStatusPastDue             SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled            SubscriptionStatus = "canceled"
	SubscriptionStatusCanceledAtPeriodEnd SubscriptionStatus = "canceled_at_period_end"
	SubscriptionStatusPaymentFailed       SubscriptionStatus = "payment_failed"
	SubscriptionStatusTrialing            SubscriptionStatus = "trialing"
)

// OpenStatuses are the states that count as a live subscription for the
// purpose of the one-open-subscription-per-user rule. A cancellation that is
// scheduled for a future date stays in this set until the period-end worker
// finalizes it.
func OpenStatuses() []SubscriptionStatus {
	return []SubscriptionStatus{
		SubscriptionStatusPending,
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceledAtPeriodEnd,
	}
}

// Subscription is a user's individual subscription record. The payment intent
// id is the join key webhooks use to locate the record; it never changes after
// creation.
type Subscription struct {
	ID               string // UUID
	UserID           string // UUID of user
	PlanID           string
	Status           SubscriptionStatus
	PaymentIntentID  string
	CurrentPeriodEnd *time.Time // nil until first successful payment
	CancelAt         *time.Time // set when a cancellation is requested
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSubscription creates a pending subscription awaiting payment.
func NewSubscription(id, userID, planID, paymentIntentID string) (*Subscription, error) {
	if id == "" || userID == "" || planID == "" || paymentIntentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:              id,
		UserID:          userID,
		PlanID:          planID,
		Status:          SubscriptionStatusPending,
		PaymentIntentID: paymentIntentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
