package administrator

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("administrator not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Administrator, error)
	GetByEmail(ctx context.Context, email string) (*Administrator, error)
	// Create fails with a repo.ConflictError on a duplicate email.
	Create(ctx context.Context, a *Administrator) (*Administrator, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
