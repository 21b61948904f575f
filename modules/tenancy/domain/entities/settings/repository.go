package settings

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("tenant settings not found")

type Repository interface {
	GetByTenantSlug(ctx context.Context, slug string) (*Settings, error)
	// Upsert creates or replaces the settings row of s.TenantSlug.
	Upsert(ctx context.Context, s *Settings) (*Settings, error)
}
