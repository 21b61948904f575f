package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/repo"
)

const (
	tenantFindQuery  = `SELECT id, slug, name, email, phone, plan, subscription_status, trial_ends_at, created_at, updated_at FROM tenants`
	tenantCountQuery = `SELECT COUNT(*) FROM tenants`
)

var tenantUniqueFields = map[string]string{
	"tenants_slug_key":  "slug",
	"tenants_email_key": "email",
}

type TenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &TenantRepository{}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.getOne(ctx, tenantFindQuery+" WHERE id = $1", id.String())
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.getOne(ctx, tenantFindQuery+" WHERE slug = $1", slug)
}

func (r *TenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`, slug)
}

func (r *TenantRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE email = $1)`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *TenantRepository) List(ctx context.Context, params *tenant.FindParams) ([]*tenant.Tenant, int, error) {
	where, args := "", []any{}
	if params != nil && params.Search != "" {
		where = " WHERE slug ILIKE $1 OR name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+params.Search+"%")
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get transaction")
	}
	var total int
	if err := tx.QueryRow(ctx, tenantCountQuery+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count tenants")
	}

	query := tenantFindQuery + where + " ORDER BY created_at DESC"
	if params != nil && params.Limit > 0 {
		query += " LIMIT " + itoa(params.Limit) + " OFFSET " + itoa(params.Offset)
	}
	tenants, err := r.queryTenants(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBTenant(t)
	query := `
		INSERT INTO tenants (id, slug, name, email, phone, plan, subscription_status, trial_ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := tx.Exec(
		ctx,
		query,
		m.ID,
		m.Slug,
		m.Name,
		m.Email,
		m.Phone,
		m.Plan,
		m.SubscriptionStatus,
		m.TrialEndsAt,
		m.CreatedAt,
		m.UpdatedAt,
	); err != nil {
		return nil, repo.TranslateUniqueViolation(err, tenantUniqueFields)
	}
	return r.GetByID(ctx, t.ID())
}

func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete tenant")
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) getOne(ctx context.Context, query string, args ...any) (*tenant.Tenant, error) {
	tenants, err := r.queryTenants(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, tenant.ErrNotFound
	}
	return tenants[0], nil
}

func (r *TenantRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	var exists bool
	if err := tx.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check tenant existence")
	}
	return exists, nil
}

func (r *TenantRepository) queryTenants(ctx context.Context, query string, args ...any) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(
			&t.ID,
			&t.Slug,
			&t.Name,
			&t.Email,
			&t.Phone,
			&t.Plan,
			&t.SubscriptionStatus,
			&t.TrialEndsAt,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant row")
		}
		domainTenant, err := toDomainTenant(&t)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map tenant row")
		}
		tenants = append(tenants, domainTenant)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return tenants, nil
}
