package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/services"
	tenancymiddleware "github.com/orderly-pos/orderly/modules/tenancy/middleware"
	tenancyservices "github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

type AuditLogsController struct {
	logs     *services.SuperadminAuditLogService
	guard    *tenancyservices.AccessGuard
	sessions *tenancyservices.SessionService
	access   tenancymiddleware.AccessOptions
	basePath string
}

func NewAuditLogsController(app application.Application, access tenancymiddleware.AccessOptions) application.Controller {
	return &AuditLogsController{
		logs:     app.Service(services.SuperadminAuditLogService{}).(*services.SuperadminAuditLogService),
		guard:    app.Service(tenancyservices.AccessGuard{}).(*tenancyservices.AccessGuard),
		sessions: app.Service(tenancyservices.SessionService{}).(*tenancyservices.SessionService),
		access:   access,
		basePath: "/superadmin/audit-logs",
	}
}

func (c *AuditLogsController) Key() string {
	return c.basePath
}

func (c *AuditLogsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(tenancymiddleware.RequireSuperadmin(c.guard, c.sessions, c.access))
	router.HandleFunc("", c.Index).Methods(http.MethodGet)
}

type auditLogRow struct {
	ID         int64           `json:"id"`
	ActorID    *string         `json:"actor_id"`
	ActorEmail string          `json:"actor_email"`
	TenantSlug *string         `json:"tenant_slug"`
	Action     string          `json:"action"`
	Payload    json.RawMessage `json:"payload"`
	IPAddress  *string         `json:"ip_address"`
	UserAgent  *string         `json:"user_agent"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (c *AuditLogsController) Index(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		_ = httpapi.WriteServiceError(w, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query()
	params := &domain.AuditLogFindParams{
		TenantSlug: q.Get("tenant_slug"),
		Action:     q.Get("action"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	logs, total, err := c.logs.List(r.Context(), params)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to list audit logs")
		_ = httpapi.WriteServiceError(w, http.StatusServiceUnavailable, tenancyservices.ErrDependencyFailure)
		return
	}

	rows := make([]auditLogRow, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, auditLogRow{
			ID:         l.ID,
			ActorID:    l.ActorID,
			ActorEmail: l.ActorEmail,
			TenantSlug: l.TenantSlug,
			Action:     l.Action,
			Payload:    l.Payload,
			IPAddress:  l.IPAddress,
			UserAgent:  l.UserAgent,
			CreatedAt:  l.CreatedAt,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, listResponse[auditLogRow]{
		Items:  rows,
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
}
