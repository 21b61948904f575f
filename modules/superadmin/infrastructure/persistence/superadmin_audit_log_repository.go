package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities"
	"github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
)

const auditLogFindQuery = `
	SELECT
		id,
		actor_id,
		actor_email,
		tenant_slug,
		action,
		payload,
		ip_address::text,
		user_agent,
		created_at
	FROM superadmin_audit_logs`

type pgSuperadminAuditLogRepository struct{}

func NewPgSuperadminAuditLogRepository() domain.SuperadminAuditLogRepository {
	return &pgSuperadminAuditLogRepository{}
}

func (r *pgSuperadminAuditLogRepository) Create(ctx context.Context, log *entities.SuperadminAuditLog) (*entities.SuperadminAuditLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	payload := []byte(log.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	created := *log
	if err := tx.QueryRow(ctx, `
		INSERT INTO superadmin_audit_logs (actor_id, actor_email, tenant_slug, action, payload, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6::inet, $7)
		RETURNING id, created_at
	`,
		log.ActorID,
		log.ActorEmail,
		log.TenantSlug,
		log.Action,
		payload,
		log.IPAddress,
		log.UserAgent,
	).Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to insert audit log")
	}
	return &created, nil
}

func (r *pgSuperadminAuditLogRepository) List(ctx context.Context, params *domain.AuditLogFindParams) ([]*entities.SuperadminAuditLog, int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get transaction")
	}

	var (
		where []string
		args  []any
	)
	if params.TenantSlug != "" {
		args = append(args, params.TenantSlug)
		where = append(where, fmt.Sprintf("tenant_slug = $%d", len(args)))
	}
	if params.Action != "" {
		args = append(args, params.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM superadmin_audit_logs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count audit logs")
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := tx.Query(ctx, auditLogFindQuery+clause+fmt.Sprintf(
		" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args),
	), args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query audit logs")
	}
	defer rows.Close()

	var out []*entities.SuperadminAuditLog
	for rows.Next() {
		var m models.SuperadminAuditLog
		if err := rows.Scan(
			&m.ID,
			&m.ActorID,
			&m.ActorEmail,
			&m.TenantSlug,
			&m.Action,
			&m.Payload,
			&m.IPAddress,
			&m.UserAgent,
			&m.CreatedAt,
		); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan audit log")
		}
		out = append(out, toDomainAuditLog(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "error iterating audit logs")
	}
	return out, total, nil
}
