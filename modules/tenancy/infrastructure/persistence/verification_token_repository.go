package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/verification"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
)

type VerificationTokenRepository struct{}

func NewVerificationTokenRepository() verification.Repository {
	return &VerificationTokenRepository{}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, t *verification.Token) (*verification.Token, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO email_verification_tokens (token, email, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, t.Token, t.Email, t.ExpiresAt, t.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to insert verification token")
	}
	return t, nil
}

func (r *VerificationTokenRepository) GetByToken(ctx context.Context, token string) (*verification.Token, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var m models.EmailVerificationToken
	err = tx.QueryRow(ctx, `
		SELECT token, email, expires_at, created_at FROM email_verification_tokens WHERE token = $1
	`, token).Scan(&m.Token, &m.Email, &m.ExpiresAt, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, verification.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query verification token")
	}
	return toDomainToken(&m), nil
}

func (r *VerificationTokenRepository) Delete(ctx context.Context, token string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM email_verification_tokens WHERE token = $1`, token)
	if err != nil {
		return errors.Wrap(err, "failed to delete verification token")
	}
	if tag.RowsAffected() == 0 {
		return verification.ErrNotFound
	}
	return nil
}

func (r *VerificationTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM email_verification_tokens WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return errors.Wrap(err, "failed to delete verification tokens")
	}
	return nil
}
