package subscription

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("subscription not found")

type Repository interface {
	GetByTenantSlug(ctx context.Context, slug string) (*Subscription, error)
	Create(ctx context.Context, s *Subscription) (*Subscription, error)
}
