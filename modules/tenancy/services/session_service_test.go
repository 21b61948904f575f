package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	superadminpersistence "github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence"
)

type sessionFixture struct {
	svc      *SessionService
	profiles businessprofile.Repository
	admins   administrator.Repository
	clock    time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	ctx := context.Background()
	hasher := NewBcryptHasher(bcrypt.MinCost, 2)
	hash, err := hasher.Hash(ctx, "correct horse battery")
	require.NoError(t, err)

	store := persistence.NewMemoryStore()
	_, err = store.Tenants().Create(ctx, tenant.New("frituurnolim", "Frituur Nolim", "owner@nolim.be"))
	require.NoError(t, err)
	_, err = store.Profiles().Create(ctx, businessprofile.New("Frituur Nolim", "owner@nolim.be", hash, "frituurnolim"))
	require.NoError(t, err)

	admins := superadminpersistence.NewMemoryStore().Administrators()
	_, err = admins.Create(ctx, administrator.New("ops@orderly.be", "Ops", hash))
	require.NoError(t, err)
	_, err = admins.Create(ctx, administrator.New("former@orderly.be", "Former", hash, administrator.WithIsActive(false)))
	require.NoError(t, err)

	f := &sessionFixture{
		profiles: store.Profiles(),
		admins:   admins,
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewSessionService(store.Profiles(), admins, hasher, SessionOptions{
		Secret: []byte("test-secret"),
		Issuer: "orderly-test",
		TTL:    time.Hour,
	})
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestSessionService_OwnerRoundTrip(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)

	sess, err := f.svc.LoginOwner(context.Background(), &LoginDTO{Email: " Owner@Nolim.be", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, "frituurnolim", sess.TenantSlug)
	assert.Equal(t, KindOwner, sess.Kind)
	assert.Equal(t, f.clock.Add(time.Hour), sess.ExpiresAt)

	creds := f.svc.Parse(sess.Token)
	require.NoError(t, creds.TokenErr)
	require.NotNil(t, creds.Owner)
	assert.Nil(t, creds.Admin)
	assert.Equal(t, "owner@nolim.be", creds.Owner.Email)

	p, err := f.profiles.GetByEmail(context.Background(), "owner@nolim.be")
	require.NoError(t, err)
	assert.Equal(t, p.ID().String(), creds.Owner.ProfileID)
}

func TestSessionService_SuperadminRoundTrip(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)

	sess, err := f.svc.LoginSuperadmin(context.Background(), &LoginDTO{Email: "ops@orderly.be", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Empty(t, sess.TenantSlug)

	creds := f.svc.Parse(sess.Token)
	require.NoError(t, creds.TokenErr)
	require.NotNil(t, creds.Admin)
	assert.Nil(t, creds.Owner)
	assert.Equal(t, "ops@orderly.be", creds.Admin.Email)
}

func TestSessionService_LoginRejections(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.LoginOwner(ctx, &LoginDTO{Email: "owner@nolim.be", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.LoginOwner(ctx, &LoginDTO{Email: "nobody@nolim.be", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.LoginOwner(ctx, &LoginDTO{Email: "", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.LoginSuperadmin(ctx, &LoginDTO{Email: "former@orderly.be", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.LoginSuperadmin(ctx, &LoginDTO{Email: "owner@nolim.be", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "owners cannot log in as superadmin")
}

func TestSessionService_ParseRejectsBadTokens(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	sess, err := f.svc.LoginOwner(context.Background(), &LoginDTO{Email: "owner@nolim.be", Password: "correct horse battery"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		g := newSessionFixture(t)
		g.clock = f.clock.Add(2 * time.Hour)
		creds := g.svc.Parse(sess.Token)
		assert.ErrorIs(t, creds.TokenErr, jwt.ErrTokenExpired)
		assert.Nil(t, creds.Owner)
	})

	t.Run("tampered", func(t *testing.T) {
		raw := []byte(sess.Token)
		i := len(raw) - 5
		if raw[i] == 'A' {
			raw[i] = 'B'
		} else {
			raw[i] = 'A'
		}
		creds := f.svc.Parse(string(raw))
		assert.ErrorIs(t, creds.TokenErr, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewSessionService(nil, nil, nil, SessionOptions{Secret: []byte("other"), Issuer: "orderly-test"})
		other.now = f.svc.now
		assert.ErrorIs(t, other.Parse(sess.Token).TokenErr, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewSessionService(nil, nil, nil, SessionOptions{Secret: []byte("test-secret"), Issuer: "someone-else"})
		other.now = f.svc.now
		assert.ErrorIs(t, other.Parse(sess.Token).TokenErr, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("unsigned", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.Error(t, f.svc.Parse(raw).TokenErr)
	})

	t.Run("unknown kind", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
			Email: "owner@nolim.be",
			Kind:  "guest",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "orderly-test",
				Subject:   "x",
				ExpiresAt: jwt.NewNumericDate(f.clock.Add(time.Minute)),
			},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.Parse(raw).TokenErr, errUnknownSessionKind)
	})
}

type countingHasher struct {
	PasswordHasher
	compares int
}

func (h *countingHasher) Compare(hash, password string) error {
	h.compares++
	return h.PasswordHasher.Compare(hash, password)
}

func TestSessionService_UnknownEmailStillHashes(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	hasher := &countingHasher{PasswordHasher: f.svc.hasher}
	f.svc.hasher = hasher
	ctx := context.Background()

	_, err := f.svc.LoginOwner(ctx, &LoginDTO{Email: "stranger@nolim.be", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, hasher.compares)

	_, err = f.svc.LoginSuperadmin(ctx, &LoginDTO{Email: "stranger@orderly.be", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 2, hasher.compares)

	_, err = f.svc.LoginOwner(ctx, &LoginDTO{Email: "owner@nolim.be", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 3, hasher.compares)
}
