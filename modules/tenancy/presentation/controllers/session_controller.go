package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/httpapi"
	"github.com/orderly-pos/orderly/pkg/middleware"
)

type SessionController struct {
	sessions  *services.SessionService
	rateLimit middleware.RateLimitConfig
}

func NewSessionController(app application.Application, rateLimit middleware.RateLimitConfig) application.Controller {
	return &SessionController{
		sessions:  app.Service(services.SessionService{}).(*services.SessionService),
		rateLimit: rateLimit,
	}
}

func (c *SessionController) Key() string {
	return "/sessions"
}

func (c *SessionController) Register(r *mux.Router) {
	limited := middleware.RateLimit(c.rateLimit)
	r.Handle("/sessions", limited(http.HandlerFunc(c.CreateOwner))).Methods(http.MethodPost)
	r.Handle("/superadmin/sessions", limited(http.HandlerFunc(c.CreateSuperadmin))).Methods(http.MethodPost)
}

func (c *SessionController) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var dto services.LoginDTO
	if err := httpapi.Decode(r, &dto); err != nil {
		writeError(w, r, errMalformedBody.WithCause(err))
		return
	}
	sess, err := c.sessions.LoginOwner(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, sess)
}

func (c *SessionController) CreateSuperadmin(w http.ResponseWriter, r *http.Request) {
	var dto services.LoginDTO
	if err := httpapi.Decode(r, &dto); err != nil {
		writeError(w, r, errMalformedBody.WithCause(err))
		return
	}
	sess, err := c.sessions.LoginSuperadmin(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, sess)
}
