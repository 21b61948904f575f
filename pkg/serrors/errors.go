package serrors

import (
	"errors"
	"fmt"
)

// BaseError is a coded error whose Code and Message are safe to show to callers.
// The wrapped cause is kept for logging only.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
	cause        error
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) Unwrap() error {
	return e.cause
}

// Is matches any BaseError carrying the same code, so sentinels survive WithCause.
func (e *BaseError) Is(target error) bool {
	var t *BaseError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	clone := *e
	clone.TemplateData = data
	return &clone
}

// WithCause returns a copy of e wrapping cause.
func (e *BaseError) WithCause(cause error) *BaseError {
	clone := *e
	clone.cause = cause
	return &clone
}

// CodeOf returns the code of the first BaseError in err's chain, or "" if none.
func CodeOf(err error) string {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
