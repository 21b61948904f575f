package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orderly-pos/orderly/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses.
type ErrorEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteServiceError writes err using its serrors code when it carries one.
// Errors without a code are reported as internal with a generic message.
func WriteServiceError(w http.ResponseWriter, status int, err error) error {
	var base *serrors.BaseError
	if errors.As(err, &base) {
		return WriteError(w, status, base.Code, base.Message, base.TemplateData)
	}
	return WriteError(w, status, "INTERNAL_SERVER_ERROR", "internal server error", nil)
}
