package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
)

const (
	// MaxSlugAttempts bounds the probes of one Allocate call.
	MaxSlugAttempts = 100
	minSlugLength   = 2
	fallbackPrefix  = "shop"
)

// NormalizeSlug lowercases name and drops everything outside [a-z0-9].
// Slugs double as subdomain labels, so separators are removed, not replaced.
func NormalizeSlug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type SlugAllocator struct {
	tenants tenant.Repository
	now     func() time.Time
}

type SlugAllocatorOption func(*SlugAllocator)

// WithClock replaces the clock used for fallback slugs.
func WithClock(now func() time.Time) SlugAllocatorOption {
	return func(a *SlugAllocator) {
		a.now = now
	}
}

func NewSlugAllocator(tenants tenant.Repository, opts ...SlugAllocatorOption) *SlugAllocator {
	a := &SlugAllocator{
		tenants: tenants,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Base returns the candidate slug before collision suffixes are applied.
func (a *SlugAllocator) Base(businessName string) string {
	base := NormalizeSlug(businessName)
	if len(base) < minSlugLength {
		return fallbackPrefix + strconv.FormatInt(a.now().UnixMilli(), 36)
	}
	return base
}

// Allocate returns a slug not currently used by any tenant.
func (a *SlugAllocator) Allocate(ctx context.Context, businessName string) (string, error) {
	return a.NewSession().Allocate(ctx, businessName)
}

// NewSession starts an allocation session. Slugs handed out by one session
// are never handed out again by it, so a caller that lost a write race can
// ask for the next candidate.
func (a *SlugAllocator) NewSession() *SlugSession {
	return &SlugSession{
		allocator: a,
		next:      make(map[string]int),
	}
}

type SlugSession struct {
	allocator *SlugAllocator
	next      map[string]int
}

// Allocate probes base, base2, base3... until a free slug is found, giving up
// after MaxSlugAttempts probes with ErrSlugAllocationExhausted.
func (s *SlugSession) Allocate(ctx context.Context, businessName string) (string, error) {
	base := s.allocator.Base(businessName)
	for attempt := 0; attempt < MaxSlugAttempts; attempt++ {
		n := s.next[base] + 1
		s.next[base] = n

		candidate := base
		if n > 1 {
			candidate = base + strconv.Itoa(n)
		}

		taken, err := s.allocator.tenants.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", errors.Wrapf(err, "failed to check slug %q", candidate)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrSlugAllocationExhausted.WithTemplateData(map[string]string{"base": base})
}
