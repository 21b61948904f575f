package services

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/access"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
)

type SessionKind string

const (
	KindOwner      SessionKind = "owner"
	KindSuperadmin SessionKind = "superadmin"
)

var errUnknownSessionKind = errors.New("unknown session kind")

// dummyPassword is hashed once so logins for unknown emails do the same
// bcrypt work as real ones.
const dummyPassword = "orderly-unknown-account"

type SessionOptions struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

type Session struct {
	Token      string      `json:"token"`
	ExpiresAt  time.Time   `json:"expires_at"`
	TenantSlug string      `json:"tenant_slug,omitempty"`
	Kind       SessionKind `json:"kind"`
}

type sessionClaims struct {
	Email  string      `json:"email"`
	Tenant string      `json:"tenant,omitempty"`
	Kind   SessionKind `json:"kind"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies HS256 session tokens. A verified token
// only yields claims; AccessGuard still checks them against storage.
type SessionService struct {
	profiles businessprofile.Repository
	admins   administrator.Repository
	hasher   PasswordHasher
	opts     SessionOptions
	now      func() time.Time

	dummyHash func() string
}

func NewSessionService(
	profiles businessprofile.Repository,
	admins administrator.Repository,
	hasher PasswordHasher,
	opts SessionOptions,
) *SessionService {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	s := &SessionService{
		profiles: profiles,
		admins:   admins,
		hasher:   hasher,
		opts:     opts,
		now:      time.Now,
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, err := hasher.Hash(context.Background(), dummyPassword)
		if err != nil {
			return ""
		}
		return h
	})
	return s
}

func (s *SessionService) compareDummy(password string) {
	if h := s.dummyHash(); h != "" {
		_ = s.hasher.Compare(h, password)
	}
}

func (s *SessionService) LoginOwner(ctx context.Context, dto *LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByEmail(ctx, dto.Email)
	if errors.Is(err, businessprofile.ErrNotFound) {
		s.compareDummy(dto.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}
	if err := s.hasher.Compare(p.PasswordHash(), dto.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(KindOwner, p.ID().String(), p.Email(), p.TenantSlug())
}

func (s *SessionService) LoginSuperadmin(ctx context.Context, dto *LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	a, err := s.admins.GetByEmail(ctx, dto.Email)
	if errors.Is(err, administrator.ErrNotFound) {
		s.compareDummy(dto.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}
	if err := s.hasher.Compare(a.PasswordHash(), dto.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !a.IsActive() {
		return nil, ErrInvalidCredentials
	}
	return s.issue(KindSuperadmin, a.ID().String(), a.Email(), "")
}

func (s *SessionService) issue(kind SessionKind, subject, email, tenantSlug string) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.opts.TTL)
	claims := sessionClaims{
		Email:  email,
		Tenant: tenantSlug,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.opts.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign session token")
	}
	return &Session{
		Token:      token,
		ExpiresAt:  expiresAt,
		TenantSlug: tenantSlug,
		Kind:       kind,
	}, nil
}

// Parse verifies raw and returns the claims it carries. Verification failures
// are reported through Credentials.TokenErr.
func (s *SessionService) Parse(raw string) access.Credentials {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.opts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return access.Credentials{TokenErr: err}
	}
	switch claims.Kind {
	case KindOwner:
		return access.Credentials{Owner: &access.OwnerClaims{ProfileID: claims.Subject, Email: claims.Email}}
	case KindSuperadmin:
		return access.Credentials{Admin: &access.AdminClaims{AdminID: claims.Subject, Email: claims.Email}}
	default:
		return access.Credentials{TokenErr: errUnknownSessionKind}
	}
}
