package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
)

// Subscription mirrors the billing state of a tenant.
type Subscription struct {
	ID             uuid.UUID
	TenantSlug     string
	Plan           tenant.Plan
	Status         tenant.SubscriptionStatus
	PriceMonthly   decimal.Decimal
	TrialStartedAt time.Time
	TrialEndsAt    time.Time
	CreatedAt      time.Time
}

// NewTrial starts a trial of plan lasting until trialEndsAt.
func NewTrial(slug string, plan tenant.Plan, price decimal.Decimal, startedAt, trialEndsAt time.Time) *Subscription {
	return &Subscription{
		ID:             uuid.New(),
		TenantSlug:     slug,
		Plan:           plan,
		Status:         tenant.StatusTrial,
		PriceMonthly:   price,
		TrialStartedAt: startedAt,
		TrialEndsAt:    trialEndsAt,
		CreatedAt:      startedAt,
	}
}
