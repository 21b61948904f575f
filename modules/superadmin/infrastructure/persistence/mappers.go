package persistence

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence/models"
)

func toDomainAdministrator(m *models.Administrator) (*administrator.Administrator, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return administrator.New(
		m.Email,
		m.Name,
		m.PasswordHash,
		administrator.WithID(id),
		administrator.WithIsActive(m.IsActive),
		administrator.WithCreatedAt(m.CreatedAt),
	), nil
}

func toDomainAuditLog(m *models.SuperadminAuditLog) *entities.SuperadminAuditLog {
	payload := json.RawMessage(m.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return &entities.SuperadminAuditLog{
		ID:         m.ID,
		ActorID:    nullStringToPointer(m.ActorID),
		ActorEmail: m.ActorEmail,
		TenantSlug: nullStringToPointer(m.TenantSlug),
		Action:     m.Action,
		Payload:    payload,
		IPAddress:  nullStringToPointer(m.IPAddress),
		UserAgent:  nullStringToPointer(m.UserAgent),
		CreatedAt:  m.CreatedAt,
	}
}

func nullStringToPointer(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
