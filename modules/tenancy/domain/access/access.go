// Package access describes the evidence a caller presents for a tenant and
// the decision reached on it.
package access

// OwnerClaims identify a business profile. Both fields are required.
type OwnerClaims struct {
	ProfileID string
	Email     string
}

func (c *OwnerClaims) Complete() bool {
	return c != nil && c.ProfileID != "" && c.Email != ""
}

// AdminClaims identify a superadmin. Both fields are required.
type AdminClaims struct {
	AdminID string
	Email   string
}

func (c *AdminClaims) Complete() bool {
	return c != nil && c.AdminID != "" && c.Email != ""
}

// Credentials is what a request proved about its caller. TokenErr is set when
// a bearer token was presented but failed verification.
type Credentials struct {
	Owner    *OwnerClaims
	Admin    *AdminClaims
	TokenErr error
}

type DenialReason string

const (
	ReasonNone            DenialReason = ""
	ReasonMissingClaims   DenialReason = "missing_claims"
	ReasonInvalidToken    DenialReason = "invalid_token"
	ReasonUnknownIdentity DenialReason = "unknown_identity"
	ReasonEmailMismatch   DenialReason = "email_mismatch"
	ReasonTenantMismatch  DenialReason = "tenant_mismatch"
	ReasonInactiveAdmin   DenialReason = "inactive_admin"
	ReasonLookupFailed    DenialReason = "lookup_failed"
)

// Decision is never persisted. Reason and Err are for logs only.
type Decision struct {
	Authorized   bool
	TenantSlug   string
	ActorID      string
	ActorEmail   string
	IsSuperAdmin bool
	Reason       DenialReason
	Err          error
}

func Deny(slug string, reason DenialReason, err error) Decision {
	return Decision{TenantSlug: slug, Reason: reason, Err: err}
}
