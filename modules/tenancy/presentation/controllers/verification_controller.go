package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/httpapi"
	"github.com/orderly-pos/orderly/pkg/middleware"
)

const resendMessage = "If the address belongs to an unverified account, a new verification email is on its way."

type VerificationController struct {
	verification *services.VerificationService
	rateLimit    middleware.RateLimitConfig
}

func NewVerificationController(app application.Application, rateLimit middleware.RateLimitConfig) application.Controller {
	return &VerificationController{
		verification: app.Service(services.VerificationService{}).(*services.VerificationService),
		rateLimit:    rateLimit,
	}
}

func (c *VerificationController) Key() string {
	return "/verify-email"
}

func (c *VerificationController) Register(r *mux.Router) {
	r.HandleFunc("/verify-email", c.Verify).Methods(http.MethodGet)
	limited := middleware.RateLimit(c.rateLimit)
	r.Handle("/verify-email/resend", limited(http.HandlerFunc(c.Resend))).Methods(http.MethodPost)
}

type verifyResponse struct {
	Success    bool   `json:"success"`
	Email      string `json:"email"`
	TenantSlug string `json:"tenant_slug"`
}

func (c *VerificationController) Verify(w http.ResponseWriter, r *http.Request) {
	profile, err := c.verification.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, verifyResponse{
		Success:    true,
		Email:      profile.Email(),
		TenantSlug: profile.TenantSlug(),
	})
}

func (c *VerificationController) Resend(w http.ResponseWriter, r *http.Request) {
	var dto services.ResendVerificationDTO
	if err := httpapi.Decode(r, &dto); err != nil {
		writeError(w, r, errMalformedBody.WithCause(err))
		return
	}
	if err := dto.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.verification.Resend(r.Context(), dto.Email); err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"message": resendMessage,
	})
}
