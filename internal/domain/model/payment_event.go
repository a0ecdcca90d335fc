package model

import "subscription-billing/internal/domain"

// Provider webhook event types this service acts on. Other types are accepted
// on the wire but produce no state change.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// PaymentEvent mirrors the provider's webhook payload shape.
type PaymentEvent struct {
	Type string           `json:"type"`
	Data PaymentEventData `json:"data"`
}

type PaymentEventData struct {
	Object PaymentIntent `json:"object"`
}

// PaymentIntent is the provider-side object embedded in the event.
type PaymentIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Validate checks the shape requirements; it does not care whether the event
// type is one we handle.
func (e *PaymentEvent) Validate() error {
	if e == nil || e.Type == "" || e.Data.Object.ID == "" {
		return domain.ErrInvalidWebhookPayload
	}
	return nil
}
