package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type Tenant struct {
	id                 uuid.UUID
	slug               string
	name               string
	email              string
	phone              string
	plan               Plan
	subscriptionStatus SubscriptionStatus
	trialEndsAt        time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

type Option func(*Tenant)

func WithID(id uuid.UUID) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithPhone(phone string) Option {
	return func(t *Tenant) {
		t.phone = phone
	}
}

func WithPlan(plan Plan) Option {
	return func(t *Tenant) {
		t.plan = plan
	}
}

func WithSubscriptionStatus(status SubscriptionStatus) Option {
	return func(t *Tenant) {
		t.subscriptionStatus = status
	}
}

func WithTrialEndsAt(at time.Time) Option {
	return func(t *Tenant) {
		t.trialEndsAt = at
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

// New builds a tenant on the starter plan in trial. The email is stored lower-cased.
func New(slug, name, email string, opts ...Option) *Tenant {
	now := time.Now()
	t := &Tenant{
		id:                 uuid.New(),
		slug:               slug,
		name:               name,
		email:              strings.ToLower(strings.TrimSpace(email)),
		plan:               PlanStarter,
		subscriptionStatus: StatusTrial,
		createdAt:          now,
		updatedAt:          now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tenant) ID() uuid.UUID {
	return t.id
}

func (t *Tenant) Slug() string {
	return t.slug
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) Email() string {
	return t.email
}

func (t *Tenant) Phone() string {
	return t.phone
}

func (t *Tenant) Plan() Plan {
	return t.plan
}

func (t *Tenant) SubscriptionStatus() SubscriptionStatus {
	return t.subscriptionStatus
}

func (t *Tenant) TrialEndsAt() time.Time {
	return t.trialEndsAt
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}
