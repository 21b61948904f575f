package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	tenancymiddleware "github.com/orderly-pos/orderly/modules/tenancy/middleware"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

type TenantController struct {
	tenants  *services.TenantService
	guard    *services.AccessGuard
	sessions *services.SessionService
	access   tenancymiddleware.AccessOptions
	basePath string
}

func NewTenantController(app application.Application, access tenancymiddleware.AccessOptions) application.Controller {
	return &TenantController{
		tenants:  app.Service(services.TenantService{}).(*services.TenantService),
		guard:    app.Service(services.AccessGuard{}).(*services.AccessGuard),
		sessions: app.Service(services.SessionService{}).(*services.SessionService),
		access:   access,
		basePath: "/tenants/{slug}",
	}
}

func (c *TenantController) Key() string {
	return c.basePath
}

func (c *TenantController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(tenancymiddleware.RequireTenantAccess(c.guard, c.sessions, c.access, "slug"))
	router.HandleFunc("", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/settings", c.UpdateSettings).Methods(http.MethodPut)
}

type settingsResponse struct {
	BusinessName   string    `json:"business_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type tenantResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	Slug               string                    `json:"tenant_slug"`
	Name               string                    `json:"name"`
	Email              string                    `json:"email"`
	Phone              string                    `json:"phone"`
	Plan               tenant.Plan               `json:"plan"`
	SubscriptionStatus tenant.SubscriptionStatus `json:"subscription_status"`
	TrialEndsAt        time.Time                 `json:"trial_ends_at"`
	Settings           settingsResponse          `json:"settings"`
}

func toSettingsResponse(s *settings.Settings) settingsResponse {
	return settingsResponse{
		BusinessName:   s.BusinessName,
		Email:          s.Email,
		Phone:          s.Phone,
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (c *TenantController) Get(w http.ResponseWriter, r *http.Request) {
	decision, _ := tenancymiddleware.UseDecision(r.Context())
	t, err := c.tenants.GetBySlug(r.Context(), decision.TenantSlug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := c.tenants.GetSettings(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, tenantResponse{
		ID:                 t.ID(),
		Slug:               t.Slug(),
		Name:               t.Name(),
		Email:              t.Email(),
		Phone:              t.Phone(),
		Plan:               t.Plan(),
		SubscriptionStatus: t.SubscriptionStatus(),
		TrialEndsAt:        t.TrialEndsAt(),
		Settings:           toSettingsResponse(st),
	})
}

func (c *TenantController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	decision, _ := tenancymiddleware.UseDecision(r.Context())
	var dto services.SettingsDTO
	if err := httpapi.Decode(r, &dto); err != nil {
		writeError(w, r, errMalformedBody.WithCause(err))
		return
	}
	saved, err := c.tenants.UpdateSettings(r.Context(), decision, &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSettingsResponse(saved))
}
