package persistence

import (
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/subscription"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/verification"
)

// Repositories groups the five record kinds touched by provisioning.
type Repositories struct {
	Tenants       tenant.Repository
	Profiles      businessprofile.Repository
	Settings      settings.Repository
	Subscriptions subscription.Repository
	Tokens        verification.Repository
}

func NewPgRepositories() *Repositories {
	return &Repositories{
		Tenants:       NewTenantRepository(),
		Profiles:      NewBusinessProfileRepository(),
		Settings:      NewSettingsRepository(),
		Subscriptions: NewSubscriptionRepository(),
		Tokens:        NewVerificationTokenRepository(),
	}
}

func NewMemoryRepositories() *Repositories {
	s := NewMemoryStore()
	return &Repositories{
		Tenants:       s.Tenants(),
		Profiles:      s.Profiles(),
		Settings:      s.Settings(),
		Subscriptions: s.Subscriptions(),
		Tokens:        s.Tokens(),
	}
}
