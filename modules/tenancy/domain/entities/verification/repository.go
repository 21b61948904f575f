package verification

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("verification token not found")

type Repository interface {
	Create(ctx context.Context, t *Token) (*Token, error)
	GetByToken(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteByEmail(ctx context.Context, email string) error
}
