package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/subscription"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/verification"
	"github.com/orderly-pos/orderly/pkg/repo"
)

// MemoryStore keeps tenancy records in process memory and enforces the same
// uniqueness rules as the SQL schema. Records are stored as copies.
type MemoryStore struct {
	mu            sync.RWMutex
	tenants       map[uuid.UUID]tenant.Tenant
	profiles      map[uuid.UUID]businessprofile.BusinessProfile
	settings      map[string]settings.Settings
	subscriptions map[string]subscription.Subscription
	tokens        map[string]verification.Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:       make(map[uuid.UUID]tenant.Tenant),
		profiles:      make(map[uuid.UUID]businessprofile.BusinessProfile),
		settings:      make(map[string]settings.Settings),
		subscriptions: make(map[string]subscription.Subscription),
		tokens:        make(map[string]verification.Token),
	}
}

func (s *MemoryStore) Tenants() tenant.Repository             { return &memTenants{s} }
func (s *MemoryStore) Profiles() businessprofile.Repository   { return &memProfiles{s} }
func (s *MemoryStore) Settings() settings.Repository          { return &memSettings{s} }
func (s *MemoryStore) Subscriptions() subscription.Repository { return &memSubscriptions{s} }
func (s *MemoryStore) Tokens() verification.Repository        { return &memTokens{s} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type memTenants struct{ s *MemoryStore }

func (r *memTenants) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	return &t, nil
}

func (r *memTenants) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tenants {
		if t.Slug() == slug {
			return &t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *memTenants) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	if errors.Is(err, tenant.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memTenants) ExistsByEmail(_ context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tenants {
		if t.Email() == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTenants) List(_ context.Context, params *tenant.FindParams) ([]*tenant.Tenant, int, error) {
	r.s.mu.RLock()
	out := make([]*tenant.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		if params != nil && params.Search != "" {
			q := strings.ToLower(params.Search)
			if !strings.Contains(t.Slug(), q) && !strings.Contains(strings.ToLower(t.Name()), q) && !strings.Contains(t.Email(), q) {
				continue
			}
		}
		out = append(out, &t)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	total := len(out)
	if params != nil && params.Limit > 0 {
		out = paginate(out, params.Limit, params.Offset)
	}
	return out, total, nil
}

func (r *memTenants) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tenants {
		if existing.Slug() == t.Slug() {
			return nil, &repo.ConflictError{Field: "slug", Constraint: "tenants_slug_key"}
		}
		if existing.Email() == t.Email() {
			return nil, &repo.ConflictError{Field: "email", Constraint: "tenants_email_key"}
		}
	}
	r.s.tenants[t.ID()] = *t
	stored := r.s.tenants[t.ID()]
	return &stored, nil
}

func (r *memTenants) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return tenant.ErrNotFound
	}
	for _, p := range r.s.profiles {
		if p.TenantSlug() == t.Slug() {
			return fmt.Errorf("tenant %s is still referenced by business profile %s", t.Slug(), p.ID())
		}
	}
	delete(r.s.tenants, id)
	delete(r.s.settings, t.Slug())
	delete(r.s.subscriptions, t.Slug())
	return nil
}

type memProfiles struct{ s *MemoryStore }

func (r *memProfiles) find(match func(p *businessprofile.BusinessProfile) bool) (*businessprofile.BusinessProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.profiles {
		if match(&p) {
			return &p, nil
		}
	}
	return nil, businessprofile.ErrNotFound
}

func (r *memProfiles) GetByID(_ context.Context, id uuid.UUID) (*businessprofile.BusinessProfile, error) {
	return r.find(func(p *businessprofile.BusinessProfile) bool { return p.ID() == id })
}

func (r *memProfiles) GetByEmail(_ context.Context, email string) (*businessprofile.BusinessProfile, error) {
	email = normalizeEmail(email)
	return r.find(func(p *businessprofile.BusinessProfile) bool { return p.Email() == email })
}

func (r *memProfiles) GetByTenantSlug(_ context.Context, slug string) (*businessprofile.BusinessProfile, error) {
	return r.find(func(p *businessprofile.BusinessProfile) bool { return p.TenantSlug() == slug })
}

func (r *memProfiles) Create(_ context.Context, p *businessprofile.BusinessProfile) (*businessprofile.BusinessProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tenantExists := false
	for _, t := range r.s.tenants {
		if t.Slug() == p.TenantSlug() {
			tenantExists = true
			break
		}
	}
	if !tenantExists {
		return nil, tenant.ErrNotFound
	}
	for _, existing := range r.s.profiles {
		if existing.Email() == p.Email() {
			return nil, &repo.ConflictError{Field: "email", Constraint: "business_profiles_email_key"}
		}
		if existing.TenantSlug() == p.TenantSlug() {
			return nil, &repo.ConflictError{Field: "tenant_slug", Constraint: "business_profiles_tenant_slug_key"}
		}
	}
	r.s.profiles[p.ID()] = *p
	stored := r.s.profiles[p.ID()]
	return &stored, nil
}

func (r *memProfiles) MarkEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return businessprofile.ErrNotFound
	}
	r.s.profiles[id] = *businessprofile.New(
		p.Name(),
		p.Email(),
		p.PasswordHash(),
		p.TenantSlug(),
		businessprofile.WithID(p.ID()),
		businessprofile.WithPhone(p.Phone()),
		businessprofile.WithEmailVerifiedAt(&at),
		businessprofile.WithCreatedAt(p.CreatedAt()),
		businessprofile.WithUpdatedAt(at),
	)
	return nil
}

type memSettings struct{ s *MemoryStore }

func (r *memSettings) GetByTenantSlug(_ context.Context, slug string) (*settings.Settings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.settings[slug]
	if !ok {
		return nil, settings.ErrNotFound
	}
	return &st, nil
}

func (r *memSettings) Upsert(_ context.Context, st *settings.Settings) (*settings.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[st.TenantSlug] = *st
	stored := r.s.settings[st.TenantSlug]
	return &stored, nil
}

type memSubscriptions struct{ s *MemoryStore }

func (r *memSubscriptions) GetByTenantSlug(_ context.Context, slug string) (*subscription.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subscriptions[slug]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return &sub, nil
}

func (r *memSubscriptions) Create(_ context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.subscriptions[sub.TenantSlug]; exists {
		return nil, &repo.ConflictError{Field: "tenant_slug", Constraint: "subscriptions_tenant_slug_key"}
	}
	r.s.subscriptions[sub.TenantSlug] = *sub
	stored := r.s.subscriptions[sub.TenantSlug]
	return &stored, nil
}

type memTokens struct{ s *MemoryStore }

func (r *memTokens) Create(_ context.Context, t *verification.Token) (*verification.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[t.Token] = *t
	stored := r.s.tokens[t.Token]
	return &stored, nil
}

func (r *memTokens) GetByToken(_ context.Context, token string) (*verification.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, verification.ErrNotFound
	}
	return &t, nil
}

func (r *memTokens) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[token]; !ok {
		return verification.ErrNotFound
	}
	delete(r.s.tokens, token)
	return nil
}

func (r *memTokens) DeleteByEmail(_ context.Context, email string) error {
	email = normalizeEmail(email)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.tokens {
		if t.Email == email {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
