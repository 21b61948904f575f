package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/access"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/pkg/composables"
)

// AccessGuard decides whether a caller may act on a tenant. The owner path is
// tried first; an active superadmin is authorized for every tenant. Any
// storage error denies.
type AccessGuard struct {
	profiles businessprofile.Repository
	admins   administrator.Repository
}

func NewAccessGuard(profiles businessprofile.Repository, admins administrator.Repository) *AccessGuard {
	return &AccessGuard{
		profiles: profiles,
		admins:   admins,
	}
}

func (g *AccessGuard) Authorize(ctx context.Context, creds access.Credentials, tenantSlug string) access.Decision {
	d := g.authorize(ctx, creds, tenantSlug)
	g.record(ctx, d)
	return d
}

// AuthorizeSuperadmin only considers the superadmin path.
func (g *AccessGuard) AuthorizeSuperadmin(ctx context.Context, creds access.Credentials) access.Decision {
	var d access.Decision
	if creds.TokenErr != nil {
		d = access.Deny("", access.ReasonInvalidToken, creds.TokenErr)
	} else {
		d = g.checkAdmin(ctx, creds.Admin, "")
	}
	g.record(ctx, d)
	return d
}

func (g *AccessGuard) authorize(ctx context.Context, creds access.Credentials, slug string) access.Decision {
	if creds.TokenErr != nil {
		return access.Deny(slug, access.ReasonInvalidToken, creds.TokenErr)
	}
	owner := g.checkOwner(ctx, creds.Owner, slug)
	if owner.Authorized {
		return owner
	}
	admin := g.checkAdmin(ctx, creds.Admin, slug)
	if admin.Authorized {
		return admin
	}
	if denialRank(admin.Reason) > denialRank(owner.Reason) {
		return admin
	}
	return owner
}

func (g *AccessGuard) checkOwner(ctx context.Context, claims *access.OwnerClaims, slug string) access.Decision {
	if !claims.Complete() {
		return access.Deny(slug, access.ReasonMissingClaims, nil)
	}
	id, err := uuid.Parse(claims.ProfileID)
	if err != nil {
		return access.Deny(slug, access.ReasonUnknownIdentity, err)
	}
	profile, err := g.profiles.GetByID(ctx, id)
	if errors.Is(err, businessprofile.ErrNotFound) {
		return access.Deny(slug, access.ReasonUnknownIdentity, err)
	}
	if err != nil {
		return access.Deny(slug, access.ReasonLookupFailed, errors.Wrap(err, "business profile lookup"))
	}
	if !sameEmail(profile.Email(), claims.Email) {
		return access.Deny(slug, access.ReasonEmailMismatch, nil)
	}
	if profile.TenantSlug() != slug {
		return access.Deny(slug, access.ReasonTenantMismatch, nil)
	}
	return access.Decision{
		Authorized: true,
		TenantSlug: slug,
		ActorID:    profile.ID().String(),
		ActorEmail: profile.Email(),
	}
}

func (g *AccessGuard) checkAdmin(ctx context.Context, claims *access.AdminClaims, slug string) access.Decision {
	if !claims.Complete() {
		return access.Deny(slug, access.ReasonMissingClaims, nil)
	}
	id, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return access.Deny(slug, access.ReasonUnknownIdentity, err)
	}
	admin, err := g.admins.GetByID(ctx, id)
	if errors.Is(err, administrator.ErrNotFound) {
		return access.Deny(slug, access.ReasonUnknownIdentity, err)
	}
	if err != nil {
		return access.Deny(slug, access.ReasonLookupFailed, errors.Wrap(err, "administrator lookup"))
	}
	if !sameEmail(admin.Email(), claims.Email) {
		return access.Deny(slug, access.ReasonEmailMismatch, nil)
	}
	if !admin.IsActive() {
		return access.Deny(slug, access.ReasonInactiveAdmin, nil)
	}
	return access.Decision{
		Authorized:   true,
		TenantSlug:   slug,
		ActorID:      admin.ID().String(),
		ActorEmail:   admin.Email(),
		IsSuperAdmin: true,
	}
}

func (g *AccessGuard) record(ctx context.Context, d access.Decision) {
	path := "denied"
	switch {
	case d.Authorized && d.IsSuperAdmin:
		path = "superadmin"
	case d.Authorized:
		path = "owner"
	}
	getMetrics().accessDecisions.WithLabelValues(path, string(d.Reason)).Inc()
	if d.Authorized {
		return
	}

	entry := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"tenant_slug": d.TenantSlug,
		"reason":      string(d.Reason),
	})
	if d.Err != nil {
		entry = entry.WithError(d.Err)
	}
	if d.Reason == access.ReasonLookupFailed {
		entry.Error("access denied, identity lookup failed")
		return
	}
	entry.Info("access denied")
}

// denialRank orders reasons when both paths deny: a storage failure is
// reported over anything else, and a specific reason over missing claims.
func denialRank(r access.DenialReason) int {
	switch r {
	case access.ReasonLookupFailed:
		return 3
	case access.ReasonInvalidToken:
		return 2
	case access.ReasonMissingClaims, access.ReasonNone:
		return 0
	default:
		return 1
	}
}

func sameEmail(stored, supplied string) bool {
	return strings.ToLower(stored) == strings.ToLower(strings.TrimSpace(supplied))
}
