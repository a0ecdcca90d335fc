package model

import "subscription-billing/internal/domain"

// Plan describes the single purchasable plan. It is read-only reference data
// injected from configuration, not a database entity.
type Plan struct {
	ID          string   `json:"planId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Interval    string   `json:"interval"`
	Features    []string `json:"features"`
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan descriptor.
func NewPlan(id, name, description string, price float64, currency, interval string, features []string) (*Plan, error) {
	if id == "" || name == "" || price <= 0 || currency == "" || interval == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Currency:    currency,
		Interval:    interval,
		Features:    features,
	}, nil
}
