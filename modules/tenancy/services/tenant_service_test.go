package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/access"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/eventbus"
)

func newTenantService(t *testing.T) (*services.TenantService, *persistence.MemoryStore, eventbus.EventBus) {
	t.Helper()
	store := persistence.NewMemoryStore()
	_, err := store.Tenants().Create(context.Background(), tenant.New("frituurnolim", "Frituur Nolim", "owner@nolim.be", tenant.WithPhone("+32 470")))
	require.NoError(t, err)
	bus := eventbus.NewEventPublisher(logrus.New())
	return services.NewTenantService(store.Tenants(), store.Settings(), bus), store, bus
}

func TestTenantService_SettingsFallBackToDefaults(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTenantService(t)
	ctx := context.Background()

	tn, err := svc.GetBySlug(ctx, "frituurnolim")
	require.NoError(t, err)
	st, err := svc.GetSettings(ctx, tn)
	require.NoError(t, err)
	assert.Equal(t, "Frituur Nolim", st.BusinessName)
	assert.Equal(t, settings.DefaultPrimaryColor, st.PrimaryColor)
	assert.Equal(t, settings.DefaultSecondaryColor, st.SecondaryColor)

	_, err = svc.GetBySlug(ctx, "unknown")
	assert.ErrorIs(t, err, services.ErrTenantNotFound)
}

func TestTenantService_UpdateSettings(t *testing.T) {
	t.Parallel()
	svc, store, bus := newTenantService(t)
	ctx := context.Background()
	var events []*tenant.SettingsUpdatedEvent
	bus.Subscribe(func(e *tenant.SettingsUpdatedEvent) {
		events = append(events, e)
	})

	decision := access.Decision{Authorized: true, TenantSlug: "frituurnolim", ActorID: "admin-1", ActorEmail: "ops@orderly.be", IsSuperAdmin: true}
	saved, err := svc.UpdateSettings(ctx, decision, &services.SettingsDTO{PrimaryColor: "#112233"})
	require.NoError(t, err)
	assert.Equal(t, "#112233", saved.PrimaryColor)
	assert.Equal(t, settings.DefaultSecondaryColor, saved.SecondaryColor)
	assert.Equal(t, "Frituur Nolim", saved.BusinessName)

	stored, err := store.Settings().GetByTenantSlug(ctx, "frituurnolim")
	require.NoError(t, err)
	assert.Equal(t, "#112233", stored.PrimaryColor)

	require.Len(t, events, 1)
	assert.True(t, events[0].IsSuperAdmin)
	assert.Equal(t, "ops@orderly.be", events[0].ActorEmail)
	assert.Equal(t, []string{"primary_color"}, events[0].Fields)
}

func TestTenantService_UpdateSettingsRejections(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTenantService(t)
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, access.Deny("frituurnolim", access.ReasonTenantMismatch, nil), &services.SettingsDTO{})
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	allowed := access.Decision{Authorized: true, TenantSlug: "frituurnolim"}
	_, err = svc.UpdateSettings(ctx, allowed, &services.SettingsDTO{PrimaryColor: "red"})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestTenantService_ListClampsPageSize(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTenantService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.Tenants().Create(ctx, tenant.New(fmt.Sprintf("pizza%d", i), "Pizza", fmt.Sprintf("p%d@x.be", i)))
		require.NoError(t, err)
	}

	items, total, err := svc.List(ctx, &tenant.FindParams{Limit: 1000, Search: "pizza"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	items, total, err = svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, items, 4)
}
