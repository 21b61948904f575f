package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]{2,}$`)

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{in: "Frituur Nolim!!", want: "frituurnolim"},
		{in: "  Pizza-Place 24 ", want: "pizzaplace24"},
		{in: "Café Brûlé", want: "cafbrl"},
		{in: "🍟🍔", want: ""},
		{in: "A", want: "a"},
		{in: "DE_GOUDEN_FRIET.be", want: "degoudenfrietbe"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, services.NormalizeSlug(tc.in), "input %q", tc.in)
	}
}

func TestSlugAllocator_FreeName(t *testing.T) {
	t.Parallel()
	allocator := services.NewSlugAllocator(persistence.NewMemoryStore().Tenants())

	slug, err := allocator.Allocate(context.Background(), "Frituur Nolim!!")
	require.NoError(t, err)
	assert.Equal(t, "frituurnolim", slug)
	assert.Regexp(t, slugPattern, slug)
}

func TestSlugAllocator_ProbesNumberedSuffixes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tenants := persistence.NewMemoryStore().Tenants()
	for _, s := range []string{"frituurnolim", "frituurnolim2"} {
		_, err := tenants.Create(ctx, tenant.New(s, "Frituur Nolim", s+"@x.com"))
		require.NoError(t, err)
	}

	slug, err := services.NewSlugAllocator(tenants).Allocate(ctx, "Frituur Nolim")
	require.NoError(t, err)
	assert.Equal(t, "frituurnolim3", slug)
}

func TestSlugSession_NeverRepeats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tenants := persistence.NewMemoryStore().Tenants()
	_, err := tenants.Create(ctx, tenant.New("frituurnolim", "Frituur Nolim", "a@x.com"))
	require.NoError(t, err)

	session := services.NewSlugAllocator(tenants).NewSession()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		slug, err := session.Allocate(ctx, "Frituur Nolim")
		require.NoError(t, err)
		assert.False(t, seen[slug], "slug %q issued twice", slug)
		seen[slug] = true
	}
	assert.True(t, seen["frituurnolim2"])
	assert.False(t, seen["frituurnolim"])
}

func TestSlugAllocator_FallbackForDegenerateNames(t *testing.T) {
	t.Parallel()
	fixed := time.UnixMilli(1700000000000)
	allocator := services.NewSlugAllocator(
		persistence.NewMemoryStore().Tenants(),
		services.WithClock(func() time.Time { return fixed }),
	)

	for _, name := range []string{"", "!!", "🍟", "x"} {
		slug, err := allocator.Allocate(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, "shoployw3v28", slug, "name %q", name)
		assert.Regexp(t, `^shop[0-9a-z]+$`, slug)
	}
}

func TestSlugAllocator_Exhausted(t *testing.T) {
	t.Parallel()
	repo := &takenTenants{Repository: persistence.NewMemoryStore().Tenants()}
	allocator := services.NewSlugAllocator(repo)

	_, err := allocator.Allocate(context.Background(), "Frituur Nolim")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrSlugAllocationExhausted)
	assert.Equal(t, services.MaxSlugAttempts, repo.calls)
}

func TestSlugAllocator_LookupErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	allocator := services.NewSlugAllocator(&takenTenants{Repository: persistence.NewMemoryStore().Tenants(), err: boom})

	_, err := allocator.Allocate(context.Background(), "Frituur Nolim")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, services.ErrSlugAllocationExhausted)
}

// takenTenants reports every slug as taken, or fails with err when set.
type takenTenants struct {
	tenant.Repository
	err   error
	calls int
}

func (r *takenTenants) ExistsBySlug(context.Context, string) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	return true, nil
}
