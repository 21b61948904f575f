package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/repo"
)

const administratorFindQuery = `SELECT id, email, name, password_hash, is_active, created_at FROM superadmins`

type AdministratorRepository struct{}

func NewAdministratorRepository() administrator.Repository {
	return &AdministratorRepository{}
}

func (r *AdministratorRepository) GetByID(ctx context.Context, id uuid.UUID) (*administrator.Administrator, error) {
	return r.getOne(ctx, administratorFindQuery+" WHERE id = $1", id.String())
}

func (r *AdministratorRepository) GetByEmail(ctx context.Context, email string) (*administrator.Administrator, error) {
	return r.getOne(ctx, administratorFindQuery+" WHERE email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *AdministratorRepository) Create(ctx context.Context, a *administrator.Administrator) (*administrator.Administrator, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO superadmins (id, email, name, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID().String(), a.Email(), a.Name(), a.PasswordHash(), a.IsActive(), a.CreatedAt()); err != nil {
		return nil, repo.TranslateUniqueViolation(
			errors.Wrap(err, "failed to insert superadmin"),
			map[string]string{"superadmins_email_key": "email"},
		)
	}
	return r.GetByID(ctx, a.ID())
}

func (r *AdministratorRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, `UPDATE superadmins SET is_active = $2 WHERE id = $1`, id.String(), active)
	if err != nil {
		return errors.Wrap(err, "failed to update superadmin")
	}
	if tag.RowsAffected() == 0 {
		return administrator.ErrNotFound
	}
	return nil
}

func (r *AdministratorRepository) getOne(ctx context.Context, query string, args ...any) (*administrator.Administrator, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var m models.Administrator
	if err := tx.QueryRow(ctx, query, args...).Scan(
		&m.ID,
		&m.Email,
		&m.Name,
		&m.PasswordHash,
		&m.IsActive,
		&m.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, administrator.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to scan superadmin")
	}
	a, err := toDomainAdministrator(&m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map superadmin row")
	}
	return a, nil
}
