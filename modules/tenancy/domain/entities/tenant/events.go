package tenant

import (
	"time"

	"github.com/google/uuid"
)

// RegisteredEvent is published once the tenant and its owner profile exist.
type RegisteredEvent struct {
	TenantID   uuid.UUID
	Slug       string
	Name       string
	Email      string
	IP         string
	UserAgent  string
	OccurredAt time.Time
}

// CompensationFailedEvent is published when a half-created tenant could not be removed.
type CompensationFailedEvent struct {
	TenantID   uuid.UUID
	Slug       string
	Email      string
	Cause      string
	OccurredAt time.Time
}

// SettingsUpdatedEvent records who changed a tenant's settings.
type SettingsUpdatedEvent struct {
	Slug         string
	ActorID      string
	ActorEmail   string
	IsSuperAdmin bool
	// Fields lists the settings that were changed.
	Fields     []string
	OccurredAt time.Time
}
