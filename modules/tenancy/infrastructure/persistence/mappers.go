package persistence

import (
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/subscription"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/verification"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence/models"
)

func toDomainTenant(t *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}
	status := tenant.SubscriptionStatus(t.SubscriptionStatus)
	if !status.IsValid() {
		return nil, errors.Errorf("unknown subscription status %q for tenant %s", t.SubscriptionStatus, t.Slug)
	}
	return tenant.New(
		t.Slug,
		t.Name,
		t.Email,
		tenant.WithID(id),
		tenant.WithPhone(t.Phone),
		tenant.WithPlan(tenant.Plan(t.Plan)),
		tenant.WithSubscriptionStatus(status),
		tenant.WithTrialEndsAt(t.TrialEndsAt),
		tenant.WithCreatedAt(t.CreatedAt),
		tenant.WithUpdatedAt(t.UpdatedAt),
	), nil
}

func toDBTenant(t *tenant.Tenant) *models.Tenant {
	return &models.Tenant{
		ID:                 t.ID().String(),
		Slug:               t.Slug(),
		Name:               t.Name(),
		Email:              t.Email(),
		Phone:              t.Phone(),
		Plan:               string(t.Plan()),
		SubscriptionStatus: string(t.SubscriptionStatus()),
		TrialEndsAt:        t.TrialEndsAt(),
		CreatedAt:          t.CreatedAt(),
		UpdatedAt:          t.UpdatedAt(),
	}
}

func toDomainBusinessProfile(p *models.BusinessProfile) (*businessprofile.BusinessProfile, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, err
	}
	return businessprofile.New(
		p.Name,
		p.Email,
		p.PasswordHash,
		p.TenantSlug,
		businessprofile.WithID(id),
		businessprofile.WithPhone(p.Phone),
		businessprofile.WithEmailVerifiedAt(nullTimeToPointer(p.EmailVerifiedAt)),
		businessprofile.WithCreatedAt(p.CreatedAt),
		businessprofile.WithUpdatedAt(p.UpdatedAt),
	), nil
}

func toDBBusinessProfile(p *businessprofile.BusinessProfile) *models.BusinessProfile {
	m := &models.BusinessProfile{
		ID:           p.ID().String(),
		Name:         p.Name(),
		Email:        p.Email(),
		PasswordHash: p.PasswordHash(),
		Phone:        p.Phone(),
		TenantSlug:   p.TenantSlug(),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
	if at := p.EmailVerifiedAt(); at != nil {
		m.EmailVerifiedAt = sql.NullTime{Time: *at, Valid: true}
	}
	return m
}

func toDomainSettings(s *models.TenantSettings) *settings.Settings {
	return &settings.Settings{
		TenantSlug:     s.TenantSlug,
		BusinessName:   s.BusinessName,
		Email:          s.Email,
		Phone:          s.Phone,
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toDomainSubscription(s *models.Subscription) (*subscription.Subscription, error) {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return nil, err
	}
	return &subscription.Subscription{
		ID:             id,
		TenantSlug:     s.TenantSlug,
		Plan:           tenant.Plan(s.Plan),
		Status:         tenant.SubscriptionStatus(s.Status),
		PriceMonthly:   s.PriceMonthly,
		TrialStartedAt: s.TrialStartedAt,
		TrialEndsAt:    s.TrialEndsAt,
		CreatedAt:      s.CreatedAt,
	}, nil
}

func toDomainToken(t *models.EmailVerificationToken) *verification.Token {
	return &verification.Token{
		Email:     t.Email,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}

func nullTimeToPointer(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
