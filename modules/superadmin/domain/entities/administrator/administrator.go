package administrator

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Administrator is a platform operator allowed to act on any tenant while active.
type Administrator struct {
	id           uuid.UUID
	email        string
	name         string
	passwordHash string
	isActive     bool
	createdAt    time.Time
}

type Option func(*Administrator)

func WithID(id uuid.UUID) Option {
	return func(a *Administrator) {
		a.id = id
	}
}

func WithIsActive(active bool) Option {
	return func(a *Administrator) {
		a.isActive = active
	}
}

func WithCreatedAt(at time.Time) Option {
	return func(a *Administrator) {
		a.createdAt = at
	}
}

func New(email, name, passwordHash string, opts ...Option) *Administrator {
	a := &Administrator{
		id:           uuid.New(),
		email:        strings.ToLower(strings.TrimSpace(email)),
		name:         name,
		passwordHash: passwordHash,
		isActive:     true,
		createdAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Administrator) ID() uuid.UUID        { return a.id }
func (a *Administrator) Email() string        { return a.email }
func (a *Administrator) Name() string         { return a.name }
func (a *Administrator) PasswordHash() string { return a.passwordHash }
func (a *Administrator) IsActive() bool       { return a.isActive }
func (a *Administrator) CreatedAt() time.Time { return a.createdAt }
