package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/eventbus"
)

const auditWriteTimeout = 5 * time.Second

// AuditEntry is one row for the platform audit trail. Payload is redacted
// before it is stored.
type AuditEntry struct {
	ActorID    string
	ActorEmail string
	TenantSlug string
	Action     string
	Payload    map[string]any
	IP         string
	UserAgent  string
}

// AuditService writes the platform audit trail. It listens to tenancy
// events, so a lost write never affects the request that caused it.
type AuditService struct {
	repo   domain.SuperadminAuditLogRepository
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewAuditService(repo domain.SuperadminAuditLogRepository, pool *pgxpool.Pool, logger *logrus.Logger) *AuditService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuditService{
		repo:   repo,
		pool:   pool,
		logger: logger,
	}
}

// Subscribe registers the event handlers on bus.
func (s *AuditService) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(s.OnTenantRegistered)
	bus.Subscribe(s.OnCompensationFailed)
	bus.Subscribe(s.OnSettingsUpdated)
}

func (s *AuditService) Log(ctx context.Context, entry AuditEntry) (*entities.SuperadminAuditLog, error) {
	payload, err := json.Marshal(redactAuditPayload(entry.Payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode audit payload")
	}
	log := &entities.SuperadminAuditLog{
		ActorID:    optional(entry.ActorID),
		ActorEmail: entry.ActorEmail,
		TenantSlug: optional(entry.TenantSlug),
		Action:     entry.Action,
		Payload:    payload,
		IPAddress:  optional(entry.IP),
		UserAgent:  optional(entry.UserAgent),
	}
	created, err := s.repo.Create(ctx, log)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to write audit log %s", entry.Action)
	}
	return created, nil
}

func (s *AuditService) OnTenantRegistered(ev *tenant.RegisteredEvent) error {
	return s.record(AuditEntry{
		ActorEmail: ev.Email,
		TenantSlug: ev.Slug,
		Action:     entities.ActionTenantRegistered,
		Payload: map[string]any{
			"tenant_id":   ev.TenantID.String(),
			"name":        ev.Name,
			"occurred_at": ev.OccurredAt,
		},
		IP:        ev.IP,
		UserAgent: ev.UserAgent,
	})
}

func (s *AuditService) OnCompensationFailed(ev *tenant.CompensationFailedEvent) error {
	return s.record(AuditEntry{
		ActorEmail: ev.Email,
		TenantSlug: ev.Slug,
		Action:     entities.ActionTenantCompensationFailed,
		Payload: map[string]any{
			"tenant_id":   ev.TenantID.String(),
			"cause":       ev.Cause,
			"occurred_at": ev.OccurredAt,
		},
	})
}

// OnSettingsUpdated only records changes made through the superadmin override.
func (s *AuditService) OnSettingsUpdated(ev *tenant.SettingsUpdatedEvent) error {
	if !ev.IsSuperAdmin {
		return nil
	}
	fields := make([]any, 0, len(ev.Fields))
	for _, f := range ev.Fields {
		fields = append(fields, f)
	}
	return s.record(AuditEntry{
		ActorID:    ev.ActorID,
		ActorEmail: ev.ActorEmail,
		TenantSlug: ev.Slug,
		Action:     entities.ActionTenantSettingsImpersonated,
		Payload: map[string]any{
			"fields":      fields,
			"occurred_at": ev.OccurredAt,
		},
	})
}

func (s *AuditService) record(entry AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if s.pool != nil {
		ctx = composables.WithPool(ctx, s.pool)
	}
	if _, err := s.Log(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":      entry.Action,
			"tenant_slug": entry.TenantSlug,
		}).Error("audit write failed")
		return err
	}
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func redactAuditPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	return redactMap(payload)
}

func redactMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if isSensitiveKey(key) {
			out[key] = "<redacted>"
			continue
		}

		switch typed := value.(type) {
		case map[string]any:
			out[key] = redactMap(typed)
		case []any:
			out[key] = redactSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func redactSlice(s []any) []any {
	out := make([]any, 0, len(s))
	for _, value := range s {
		switch typed := value.(type) {
		case map[string]any:
			out = append(out, redactMap(typed))
		case []any:
			out = append(out, redactSlice(typed))
		default:
			out = append(out, value)
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	for _, s := range []string{"password", "secret", "token", "cookie", "hash"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
