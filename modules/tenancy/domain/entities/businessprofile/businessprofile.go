package businessprofile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BusinessProfile is the owner login of a tenant. A tenant without one is an orphan.
type BusinessProfile struct {
	id              uuid.UUID
	name            string
	email           string
	passwordHash    string
	phone           string
	tenantSlug      string
	emailVerifiedAt *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

type Option func(*BusinessProfile)

func WithID(id uuid.UUID) Option {
	return func(p *BusinessProfile) {
		p.id = id
	}
}

func WithPhone(phone string) Option {
	return func(p *BusinessProfile) {
		p.phone = phone
	}
}

func WithEmailVerifiedAt(at *time.Time) Option {
	return func(p *BusinessProfile) {
		p.emailVerifiedAt = at
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(p *BusinessProfile) {
		p.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(p *BusinessProfile) {
		p.updatedAt = updatedAt
	}
}

func New(name, email, passwordHash, tenantSlug string, opts ...Option) *BusinessProfile {
	now := time.Now()
	p := &BusinessProfile{
		id:           uuid.New(),
		name:         name,
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		tenantSlug:   tenantSlug,
		createdAt:    now,
		updatedAt:    now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *BusinessProfile) ID() uuid.UUID {
	return p.id
}

func (p *BusinessProfile) Name() string {
	return p.name
}

func (p *BusinessProfile) Email() string {
	return p.email
}

func (p *BusinessProfile) PasswordHash() string {
	return p.passwordHash
}

func (p *BusinessProfile) Phone() string {
	return p.phone
}

func (p *BusinessProfile) TenantSlug() string {
	return p.tenantSlug
}

func (p *BusinessProfile) EmailVerifiedAt() *time.Time {
	return p.emailVerifiedAt
}

func (p *BusinessProfile) IsEmailVerified() bool {
	return p.emailVerifiedAt != nil
}

func (p *BusinessProfile) CreatedAt() time.Time {
	return p.createdAt
}

func (p *BusinessProfile) UpdatedAt() time.Time {
	return p.updatedAt
}
