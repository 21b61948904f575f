package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	tenancymiddleware "github.com/orderly-pos/orderly/modules/tenancy/middleware"
	tenancyservices "github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

type TenantsController struct {
	tenants  *tenancyservices.TenantService
	guard    *tenancyservices.AccessGuard
	sessions *tenancyservices.SessionService
	access   tenancymiddleware.AccessOptions
	basePath string
}

func NewTenantsController(app application.Application, access tenancymiddleware.AccessOptions) application.Controller {
	return &TenantsController{
		tenants:  app.Service(tenancyservices.TenantService{}).(*tenancyservices.TenantService),
		guard:    app.Service(tenancyservices.AccessGuard{}).(*tenancyservices.AccessGuard),
		sessions: app.Service(tenancyservices.SessionService{}).(*tenancyservices.SessionService),
		access:   access,
		basePath: "/superadmin/tenants",
	}
}

func (c *TenantsController) Key() string {
	return c.basePath
}

func (c *TenantsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(tenancymiddleware.RequireSuperadmin(c.guard, c.sessions, c.access))
	router.HandleFunc("", c.Index).Methods(http.MethodGet)
}

type tenantRow struct {
	ID                 string                    `json:"id"`
	Slug               string                    `json:"tenant_slug"`
	Name               string                    `json:"name"`
	Email              string                    `json:"email"`
	Plan               tenant.Plan               `json:"plan"`
	SubscriptionStatus tenant.SubscriptionStatus `json:"subscription_status"`
	TrialEndsAt        time.Time                 `json:"trial_ends_at"`
	CreatedAt          time.Time                 `json:"created_at"`
}

func (c *TenantsController) Index(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context())
	p, err := parsePage(r)
	if err != nil {
		_ = httpapi.WriteServiceError(w, http.StatusBadRequest, err)
		return
	}

	tenants, total, err := c.tenants.List(r.Context(), &tenant.FindParams{
		Limit:  p.Limit,
		Offset: p.Offset,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		logger.WithError(err).Error("failed to list tenants")
		_ = httpapi.WriteServiceError(w, http.StatusServiceUnavailable, tenancyservices.ErrDependencyFailure)
		return
	}

	rows := make([]tenantRow, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, tenantRow{
			ID:                 t.ID().String(),
			Slug:               t.Slug(),
			Name:               t.Name(),
			Email:              t.Email(),
			Plan:               t.Plan(),
			SubscriptionStatus: t.SubscriptionStatus(),
			TrialEndsAt:        t.TrialEndsAt(),
			CreatedAt:          t.CreatedAt(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, listResponse[tenantRow]{
		Items:  rows,
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
}
