package services

import (
	"fmt"

	"github.com/orderly-pos/orderly/pkg/serrors"
)

var (
	ErrValidation               = serrors.NewError("VALIDATION_FAILED", "invalid registration data", "Errors.ValidationFailed")
	ErrEmailAlreadyInUse        = serrors.NewError("EMAIL_ALREADY_IN_USE", "an account with this email already exists", "Errors.EmailAlreadyInUse")
	ErrSlugAllocationExhausted  = serrors.NewError("SLUG_ALLOCATION_EXHAUSTED", "no free address could be derived from this business name, choose a different name", "Errors.SlugAllocationExhausted")
	ErrSlugConflict             = serrors.NewError("SLUG_CONFLICT", "the business address was taken while registering, try again", "Errors.SlugConflict")
	ErrDependencyFailure        = serrors.NewError("DEPENDENCY_FAILURE", "service temporarily unavailable, try again later", "Errors.DependencyFailure")
	ErrInvalidCredentials       = serrors.NewError("INVALID_CREDENTIALS", "invalid email or password", "Errors.InvalidCredentials")
	ErrNotAuthorized            = serrors.NewError("NOT_AUTHORIZED", "not authorized or session invalid", "Errors.NotAuthorized")
	ErrVerificationTokenInvalid = serrors.NewError("VERIFICATION_TOKEN_INVALID", "verification link is invalid or has already been used", "Errors.VerificationTokenInvalid")
	ErrVerificationTokenExpired = serrors.NewError("VERIFICATION_TOKEN_EXPIRED", "verification link has expired, request a new one", "Errors.VerificationTokenExpired")
	ErrTenantNotFound           = serrors.NewError("TENANT_NOT_FOUND", "tenant not found", "Errors.TenantNotFound")
)

type Step string

const (
	StepCheckEmail    Step = "check_email"
	StepAllocateSlug  Step = "allocate_slug"
	StepHashPassword  Step = "hash_password"
	StepCreateTenant  Step = "create_tenant"
	StepCreateProfile Step = "create_business_profile"
)

// ProvisioningStepError wraps a failed registration step with the slug being
// provisioned. Storage steps classify as ErrDependencyFailure.
type ProvisioningStepError struct {
	Step Step
	Slug string
	Err  error
}

func (e *ProvisioningStepError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("provisioning step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("provisioning step %s failed for %q: %v", e.Step, e.Slug, e.Err)
}

func (e *ProvisioningStepError) Unwrap() error {
	return e.Err
}

func (e *ProvisioningStepError) Is(target error) bool {
	if serrors.CodeOf(target) != ErrDependencyFailure.Code {
		return false
	}
	return e.Step != StepHashPassword
}
