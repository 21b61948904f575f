package domain

import (
	"context"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities"
)

type AuditLogFindParams struct {
	TenantSlug string
	Action     string
	Limit      int
	Offset     int
}

type SuperadminAuditLogRepository interface {
	Create(ctx context.Context, log *entities.SuperadminAuditLog) (*entities.SuperadminAuditLog, error)
	List(ctx context.Context, params *AuditLogFindParams) ([]*entities.SuperadminAuditLog, int, error)
}
