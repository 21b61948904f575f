package controllers

import (
	"errors"
	"net/http"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

var errMalformedBody = services.ErrValidation.WithTemplateData(map[string]string{"body": "malformed"})

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrSlugAllocationExhausted),
		errors.Is(err, services.ErrVerificationTokenInvalid),
		errors.Is(err, services.ErrVerificationTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrEmailAlreadyInUse), errors.Is(err, services.ErrSlugConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDependencyFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and a caller-safe body. Causes are logged,
// never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := composables.UseLogger(r.Context()).WithError(err)
	switch status := statusFor(err); status {
	case http.StatusServiceUnavailable:
		logger.Warn("dependency failure")
		_ = httpapi.WriteServiceError(w, status, services.ErrDependencyFailure)
	case http.StatusInternalServerError:
		logger.Error("unexpected error")
		_ = httpapi.WriteServiceError(w, status, err)
	default:
		logger.Debug("request rejected")
		_ = httpapi.WriteServiceError(w, status, err)
	}
}
