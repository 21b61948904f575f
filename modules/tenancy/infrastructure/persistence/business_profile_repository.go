package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/repo"
)

const profileFindQuery = `SELECT id, name, email, password_hash, phone, tenant_slug, email_verified_at, created_at, updated_at FROM business_profiles`

var profileUniqueFields = map[string]string{
	"business_profiles_email_key":       "email",
	"business_profiles_tenant_slug_key": "tenant_slug",
}

type BusinessProfileRepository struct{}

func NewBusinessProfileRepository() businessprofile.Repository {
	return &BusinessProfileRepository{}
}

func (r *BusinessProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*businessprofile.BusinessProfile, error) {
	return r.getOne(ctx, profileFindQuery+" WHERE id = $1", id.String())
}

func (r *BusinessProfileRepository) GetByEmail(ctx context.Context, email string) (*businessprofile.BusinessProfile, error) {
	return r.getOne(ctx, profileFindQuery+" WHERE email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *BusinessProfileRepository) GetByTenantSlug(ctx context.Context, slug string) (*businessprofile.BusinessProfile, error) {
	return r.getOne(ctx, profileFindQuery+" WHERE tenant_slug = $1", slug)
}

func (r *BusinessProfileRepository) Create(ctx context.Context, p *businessprofile.BusinessProfile) (*businessprofile.BusinessProfile, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBBusinessProfile(p)
	query := `
		INSERT INTO business_profiles (id, name, email, password_hash, phone, tenant_slug, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.Exec(
		ctx,
		query,
		m.ID,
		m.Name,
		m.Email,
		m.PasswordHash,
		m.Phone,
		m.TenantSlug,
		m.EmailVerifiedAt,
		m.CreatedAt,
		m.UpdatedAt,
	); err != nil {
		return nil, repo.TranslateUniqueViolation(err, profileUniqueFields)
	}
	return r.GetByID(ctx, p.ID())
}

func (r *BusinessProfileRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(
		ctx,
		`UPDATE business_profiles SET email_verified_at = $1, updated_at = $1 WHERE id = $2`,
		at,
		id.String(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to mark email verified")
	}
	if tag.RowsAffected() == 0 {
		return businessprofile.ErrNotFound
	}
	return nil
}

func (r *BusinessProfileRepository) getOne(ctx context.Context, query string, args ...any) (*businessprofile.BusinessProfile, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "row iteration error")
		}
		return nil, businessprofile.ErrNotFound
	}
	var p models.BusinessProfile
	if err := rows.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Phone,
		&p.TenantSlug,
		&p.EmailVerifiedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan business profile row")
	}
	return toDomainBusinessProfile(&p)
}
