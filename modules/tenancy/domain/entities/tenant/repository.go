package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("tenant not found")

type FindParams struct {
	Limit  int
	Offset int
	// Search matches slug, name or email, case-insensitively.
	Search string
}

// Repository persists tenants. Create must fail with a repo.ConflictError on
// a duplicate slug or email; callers rely on that instead of locking.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, params *FindParams) ([]*Tenant, int, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
