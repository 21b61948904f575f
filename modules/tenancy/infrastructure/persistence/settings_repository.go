package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
)

type SettingsRepository struct{}

func NewSettingsRepository() settings.Repository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) GetByTenantSlug(ctx context.Context, slug string) (*settings.Settings, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var m models.TenantSettings
	err = tx.QueryRow(ctx, `
		SELECT tenant_slug, business_name, email, phone, primary_color, secondary_color, updated_at
		FROM tenant_settings WHERE tenant_slug = $1
	`, slug).Scan(
		&m.TenantSlug,
		&m.BusinessName,
		&m.Email,
		&m.Phone,
		&m.PrimaryColor,
		&m.SecondaryColor,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tenant settings")
	}
	return toDomainSettings(&m), nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *settings.Settings) (*settings.Settings, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO tenant_settings (tenant_slug, business_name, email, phone, primary_color, secondary_color, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_slug) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			primary_color = EXCLUDED.primary_color,
			secondary_color = EXCLUDED.secondary_color,
			updated_at = EXCLUDED.updated_at
	`,
		s.TenantSlug,
		s.BusinessName,
		s.Email,
		s.Phone,
		s.PrimaryColor,
		s.SecondaryColor,
		s.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert tenant settings")
	}
	return r.GetByTenantSlug(ctx, s.TenantSlug)
}
