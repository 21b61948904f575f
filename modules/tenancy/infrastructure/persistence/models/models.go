package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Tenant struct {
	ID                 string
	Slug               string
	Name               string
	Email              string
	Phone              string
	Plan               string
	SubscriptionStatus string
	TrialEndsAt        time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type BusinessProfile struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Phone           string
	TenantSlug      string
	EmailVerifiedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TenantSettings struct {
	TenantSlug     string
	BusinessName   string
	Email          string
	Phone          string
	PrimaryColor   string
	SecondaryColor string
	UpdatedAt      time.Time
}

type Subscription struct {
	ID             string
	TenantSlug     string
	Plan           string
	Status         string
	PriceMonthly   decimal.Decimal
	TrialStartedAt time.Time
	TrialEndsAt    time.Time
	CreatedAt      time.Time
}

type EmailVerificationToken struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
