package services_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/subscription"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
)

// scriptedTenants wraps a real repository and injects failures.
type scriptedTenants struct {
	tenant.Repository

	mu           sync.Mutex
	createErr    error
	deleteErr    error
	beforeCreate func(ctx context.Context, t *tenant.Tenant)
	creates      int
	deletes      int
}

func (r *scriptedTenants) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.mu.Lock()
	r.creates++
	hook, err := r.beforeCreate, r.createErr
	r.beforeCreate = nil
	r.mu.Unlock()
	if hook != nil {
		hook(ctx, t)
	}
	if err != nil {
		return nil, err
	}
	return r.Repository.Create(ctx, t)
}

func (r *scriptedTenants) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	r.deletes++
	err := r.deleteErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.Repository.Delete(ctx, id)
}

type scriptedProfiles struct {
	businessprofile.Repository

	mu          sync.Mutex
	createErr   error
	afterCreate func()
	lookupErr   error
}

func (r *scriptedProfiles) Create(ctx context.Context, p *businessprofile.BusinessProfile) (*businessprofile.BusinessProfile, error) {
	r.mu.Lock()
	err, hook := r.createErr, r.afterCreate
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	created, err := r.Repository.Create(ctx, p)
	if err == nil && hook != nil {
		hook()
	}
	return created, err
}

func (r *scriptedProfiles) GetByID(ctx context.Context, id uuid.UUID) (*businessprofile.BusinessProfile, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return r.Repository.GetByID(ctx, id)
}

func (r *scriptedProfiles) GetByEmail(ctx context.Context, email string) (*businessprofile.BusinessProfile, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return r.Repository.GetByEmail(ctx, email)
}

type scriptedSettings struct {
	settings.Repository

	err     error
	seenErr error
	calls   int
}

func (r *scriptedSettings) Upsert(ctx context.Context, s *settings.Settings) (*settings.Settings, error) {
	r.calls++
	r.seenErr = ctx.Err()
	if r.err != nil {
		return nil, r.err
	}
	return r.Repository.Upsert(ctx, s)
}

type failingSubscriptions struct {
	subscription.Repository
	err error
}

func (r *failingSubscriptions) Create(context.Context, *subscription.Subscription) (*subscription.Subscription, error) {
	return nil, r.err
}

type panickingVerifier struct{}

func (panickingVerifier) Issue(context.Context, *businessprofile.BusinessProfile) error {
	panic("mailer exploded")
}

type captureDispatcher struct {
	mu   sync.Mutex
	err  error
	sent []services.VerificationMessage
}

func (d *captureDispatcher) SendVerification(_ context.Context, msg services.VerificationMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *captureDispatcher) messages() []services.VerificationMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]services.VerificationMessage(nil), d.sent...)
}
