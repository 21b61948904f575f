package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/access"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/constants"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

const (
	HeaderBusinessID      = "X-Business-Id"
	HeaderAuthEmail       = "X-Auth-Email"
	HeaderSuperadminID    = "X-Superadmin-Id"
	HeaderSuperadminEmail = "X-Superadmin-Email"
)

type TokenParser interface {
	Parse(raw string) access.Credentials
}

type Authorizer interface {
	Authorize(ctx context.Context, creds access.Credentials, tenantSlug string) access.Decision
	AuthorizeSuperadmin(ctx context.Context, creds access.Credentials) access.Decision
}

type AccessOptions struct {
	// TrustIdentityHeaders accepts X-Business-Id style headers when no bearer
	// token is sent. Only safe behind a gateway that strips them from clients.
	TrustIdentityHeaders bool
}

// CredentialsFromRequest extracts caller claims. A bearer token always wins
// over identity headers.
func CredentialsFromRequest(r *http.Request, tokens TokenParser, opts AccessOptions) access.Credentials {
	if raw, ok := bearerToken(r); ok {
		return tokens.Parse(raw)
	}
	if !opts.TrustIdentityHeaders {
		return access.Credentials{}
	}
	var creds access.Credentials
	if id, email := header(r, HeaderBusinessID), header(r, HeaderAuthEmail); id != "" || email != "" {
		creds.Owner = &access.OwnerClaims{ProfileID: id, Email: email}
	}
	if id, email := header(r, HeaderSuperadminID), header(r, HeaderSuperadminEmail); id != "" || email != "" {
		creds.Admin = &access.AdminClaims{AdminID: id, Email: email}
	}
	return creds
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func header(r *http.Request, name string) string {
	return strings.TrimSpace(r.Header.Get(name))
}

// RequireTenantAccess authorizes the caller for the tenant named by the
// slugVar route variable.
func RequireTenantAccess(guard Authorizer, tokens TokenParser, opts AccessOptions, slugVar string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := strings.ToLower(mux.Vars(r)[slugVar])
			d := guard.Authorize(r.Context(), CredentialsFromRequest(r, tokens, opts), slug)
			serve(w, r, next, d)
		})
	}
}

func RequireSuperadmin(guard Authorizer, tokens TokenParser, opts AccessOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.AuthorizeSuperadmin(r.Context(), CredentialsFromRequest(r, tokens, opts))
			serve(w, r, next, d)
		})
	}
}

func serve(w http.ResponseWriter, r *http.Request, next http.Handler, d access.Decision) {
	if !d.Authorized {
		// Every denial looks the same to the caller.
		_ = httpapi.WriteServiceError(w, http.StatusUnauthorized, services.ErrNotAuthorized)
		return
	}
	ctx := WithDecision(r.Context(), d)
	ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithFields(logrus.Fields{
		"actor_id":      d.ActorID,
		"is_superadmin": d.IsSuperAdmin,
	}))
	next.ServeHTTP(w, r.WithContext(ctx))
}

func WithDecision(ctx context.Context, d access.Decision) context.Context {
	return context.WithValue(ctx, constants.AccessKey, d)
}

// UseDecision returns the decision of an access middleware earlier in the chain.
func UseDecision(ctx context.Context) (access.Decision, bool) {
	d, ok := ctx.Value(constants.AccessKey).(access.Decision)
	return d, ok
}
