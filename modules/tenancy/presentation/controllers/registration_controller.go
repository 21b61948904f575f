package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/httpapi"
	"github.com/orderly-pos/orderly/pkg/middleware"
)

type RegistrationControllerOptions struct {
	// Timeout bounds the critical part of a registration.
	Timeout   time.Duration
	RateLimit middleware.RateLimitConfig
}

type RegistrationController struct {
	provisioning *services.ProvisioningService
	opts         RegistrationControllerOptions
	basePath     string
}

func NewRegistrationController(app application.Application, opts RegistrationControllerOptions) application.Controller {
	return &RegistrationController{
		provisioning: app.Service(services.ProvisioningService{}).(*services.ProvisioningService),
		opts:         opts,
		basePath:     "/register",
	}
}

func (c *RegistrationController) Key() string {
	return c.basePath
}

func (c *RegistrationController) Register(r *mux.Router) {
	limited := middleware.RateLimit(c.opts.RateLimit)
	r.Handle(c.basePath, limited(http.HandlerFunc(c.Create))).Methods(http.MethodPost)
}

type registrationResponse struct {
	Success bool                   `json:"success"`
	Tenant  services.TenantSummary `json:"tenant"`
	Message string                 `json:"message"`
}

func (c *RegistrationController) Create(w http.ResponseWriter, r *http.Request) {
	var dto services.RegistrationDTO
	if err := httpapi.Decode(r, &dto); err != nil {
		writeError(w, r, errMalformedBody.WithCause(err))
		return
	}

	ctx := r.Context()
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	result, err := c.provisioning.Register(ctx, &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, registrationResponse{
		Success: true,
		Tenant:  result.Tenant,
		Message: result.Message,
	})
}
