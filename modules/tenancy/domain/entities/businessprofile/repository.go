package businessprofile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("business profile not found")

// Repository persists owner profiles. Create fails with a repo.ConflictError
// on a duplicate email or tenant_slug.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BusinessProfile, error)
	GetByEmail(ctx context.Context, email string) (*BusinessProfile, error)
	GetByTenantSlug(ctx context.Context, slug string) (*BusinessProfile, error)
	Create(ctx context.Context, p *BusinessProfile) (*BusinessProfile, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
}
