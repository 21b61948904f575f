package entities

import (
	"encoding/json"
	"time"
)

const (
	ActionTenantRegistered           = "tenant.registered"
	ActionTenantCompensationFailed   = "tenant.compensation_failed"
	ActionTenantSettingsImpersonated = "tenant.settings_updated_by_superadmin"
)

type SuperadminAuditLog struct {
	ID         int64
	ActorID    *string
	ActorEmail string
	TenantSlug *string
	Action     string
	Payload    json.RawMessage
	IPAddress  *string
	UserAgent  *string
	CreatedAt  time.Time
}
