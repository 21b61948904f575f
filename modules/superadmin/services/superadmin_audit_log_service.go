package services

import (
	"context"

	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type SuperadminAuditLogService struct {
	repo domain.SuperadminAuditLogRepository
}

func NewSuperadminAuditLogService(repo domain.SuperadminAuditLogRepository) *SuperadminAuditLogService {
	return &SuperadminAuditLogService{repo: repo}
}

func (s *SuperadminAuditLogService) List(ctx context.Context, params *domain.AuditLogFindParams) ([]*entities.SuperadminAuditLog, int, error) {
	p := domain.AuditLogFindParams{}
	if params != nil {
		p = *params
	}
	if p.Limit <= 0 {
		p.Limit = defaultAuditPageSize
	}
	if p.Limit > maxAuditPageSize {
		p.Limit = maxAuditPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return s.repo.List(ctx, &p)
}
