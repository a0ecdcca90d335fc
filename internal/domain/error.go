package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Subscription lifecycle
	ErrInvalidPlan           = errors.New("invalid plan id")
	ErrAlreadySubscribed     = errors.New("user already has an open subscription")
	ErrNoActiveSubscription  = errors.New("no active subscription found")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

	// Identity
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
