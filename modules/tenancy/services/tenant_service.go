package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/access"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/eventbus"
)

const maxTenantPageSize = 100

type TenantService struct {
	tenants   tenant.Repository
	settings  settings.Repository
	publisher eventbus.EventBus
}

func NewTenantService(tenants tenant.Repository, settingsRepo settings.Repository, publisher eventbus.EventBus) *TenantService {
	return &TenantService{
		tenants:   tenants,
		settings:  settingsRepo,
		publisher: publisher,
	}
}

func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := s.tenants.GetBySlug(ctx, slug)
	if errors.Is(err, tenant.ErrNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}
	return t, nil
}

// GetSettings returns the stored settings of t, or defaults derived from t
// when none were written.
func (s *TenantService) GetSettings(ctx context.Context, t *tenant.Tenant) (*settings.Settings, error) {
	st, err := s.settings.GetByTenantSlug(ctx, t.Slug())
	if errors.Is(err, settings.ErrNotFound) {
		return settings.Default(t.Slug(), t.Name(), t.Email(), t.Phone()), nil
	}
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}
	return st, nil
}

// UpdateSettings applies the non-empty fields of dto on behalf of an
// authorized caller.
func (s *TenantService) UpdateSettings(ctx context.Context, decision access.Decision, dto *SettingsDTO) (*settings.Settings, error) {
	if !decision.Authorized {
		return nil, ErrNotAuthorized
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	t, err := s.GetBySlug(ctx, decision.TenantSlug)
	if err != nil {
		return nil, err
	}
	current, err := s.GetSettings(ctx, t)
	if err != nil {
		return nil, err
	}

	next := *current
	var changed []string
	for _, f := range []struct {
		name  string
		value string
		dst   *string
	}{
		{"business_name", dto.BusinessName, &next.BusinessName},
		{"email", dto.Email, &next.Email},
		{"phone", dto.Phone, &next.Phone},
		{"primary_color", dto.PrimaryColor, &next.PrimaryColor},
		{"secondary_color", dto.SecondaryColor, &next.SecondaryColor},
	} {
		if f.value != "" {
			*f.dst = f.value
			changed = append(changed, f.name)
		}
	}
	next.UpdatedAt = time.Now()

	saved, err := s.settings.Upsert(ctx, &next)
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}

	if s.publisher != nil {
		ev := &tenant.SettingsUpdatedEvent{
			Slug:         t.Slug(),
			ActorID:      decision.ActorID,
			ActorEmail:   decision.ActorEmail,
			IsSuperAdmin: decision.IsSuperAdmin,
			Fields:       changed,
			OccurredAt:   next.UpdatedAt,
		}
		if err := s.publisher.PublishE(ev); err != nil && !errors.Is(err, eventbus.ErrNoSubscribers) {
			composables.UseLogger(ctx).WithError(err).WithField("tenant_slug", t.Slug()).Warn("failed to publish settings update")
		}
	}
	return saved, nil
}

func (s *TenantService) List(ctx context.Context, params *tenant.FindParams) ([]*tenant.Tenant, int, error) {
	p := tenant.FindParams{}
	if params != nil {
		p = *params
	}
	if p.Limit <= 0 || p.Limit > maxTenantPageSize {
		p.Limit = maxTenantPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	tenants, total, err := s.tenants.List(ctx, &p)
	if err != nil {
		return nil, 0, ErrDependencyFailure.WithCause(err)
	}
	return tenants, total, nil
}
