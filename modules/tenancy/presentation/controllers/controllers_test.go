package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	superadminpersistence "github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/tenancy"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/middleware"
	"github.com/orderly-pos/orderly/pkg/server"
)

const ownerPassword = "correct-horse"

type captureDispatcher struct {
	mu   sync.Mutex
	sent []services.VerificationMessage
}

func (d *captureDispatcher) SendVerification(_ context.Context, msg services.VerificationMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return nil
}

func (d *captureDispatcher) lastToken(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.sent)
	link, err := url.Parse(d.sent[len(d.sent)-1].Link)
	require.NoError(t, err)
	return link.Query().Get("token")
}

type unreachableTenants struct {
	tenant.Repository
}

func (unreachableTenants) ExistsByEmail(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

type testEnv struct {
	handler    http.Handler
	repos      *persistence.Repositories
	admins     *superadminpersistence.MemoryStore
	dispatcher *captureDispatcher
}

func newTestEnv(t *testing.T, configure func(*tenancy.ModuleOptions)) *testEnv {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		repos:      persistence.NewMemoryRepositories(),
		admins:     superadminpersistence.NewMemoryStore(),
		dispatcher: &captureDispatcher{},
	}
	opts := &tenancy.ModuleOptions{
		Repositories:    env.repos,
		Administrators:  env.admins.Administrators(),
		Dispatcher:      env.dispatcher,
		BcryptCost:      bcrypt.MinCost,
		HashConcurrency: 2,
		Verification: services.VerificationOptions{
			LinkBaseURL: "https://app.orderly.test/verify-email",
		},
		Session: services.SessionOptions{
			Secret: []byte("controller-test-secret-0123456789abcdef"),
			Issuer: "orderly-test",
		},
	}
	if configure != nil {
		configure(opts)
	}

	app := application.New(&application.ApplicationOptions{Logger: logger})
	require.NoError(t, app.RegisterModules(tenancy.NewModule(opts)))
	env.handler = server.NewHTTPServer(app, http.NotFoundHandler(), http.NotFoundHandler()).Router()
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, name, email string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"businessName": name,
		"email":        email,
		"phone":        "+32 470 12 34 56",
		"password":     ownerPassword,
	})
	require.NoError(t, err)
	return e.do(t, http.MethodPost, "/register", string(body), "")
}

func (e *testEnv) login(t *testing.T, path, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, path, `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess services.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegistrationController_Create(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.register(t, "Frituur Nolim", "Owner@Nolim.be")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])
	summary := body["tenant"].(map[string]any)
	assert.Equal(t, "frituurnolim", summary["tenant_slug"])
	assert.Equal(t, "owner@nolim.be", summary["email"])
	assert.Equal(t, "Frituur Nolim", summary["name"])
	assert.NotContains(t, rec.Body.String(), ownerPassword)
}

func TestRegistrationController_FormBodies(t *testing.T) {
	t.Parallel()
	fields := map[string]string{
		"businessName": "Frituur Nolim",
		"email":        "owner@nolim.be",
		"phone":        "+32 470 12 34 56",
		"password":     ownerPassword,
	}

	t.Run("urlencoded", func(t *testing.T) {
		env := newTestEnv(t, nil)
		values := url.Values{}
		for k, v := range fields {
			values.Set(k, v)
		}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "frituurnolim", decodeBody(t, rec)["tenant"].(map[string]any)["tenant_slug"])
	})

	t.Run("multipart", func(t *testing.T) {
		env := newTestEnv(t, nil)
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/register", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "frituurnolim", decodeBody(t, rec)["tenant"].(map[string]any)["tenant_slug"])
	})
}

func TestRegistrationController_ErrorStatuses(t *testing.T) {
	t.Parallel()

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/register", `{"businessName":"","email":"nope","phone":"1","password":"x"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, services.ErrValidation.Code, body["code"])
		assert.Equal(t, false, body["success"])
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/register", `{"businessName":`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("email in use", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)

		rec := env.register(t, "Another Shop", "OWNER@nolim.be")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, services.ErrEmailAlreadyInUse.Code, decodeBody(t, rec)["code"])
	})

	t.Run("storage unavailable", func(t *testing.T) {
		env := newTestEnv(t, func(opts *tenancy.ModuleOptions) {
			opts.Repositories.Tenants = unreachableTenants{opts.Repositories.Tenants}
		})
		rec := env.register(t, "Frituur Nolim", "owner@nolim.be")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, services.ErrDependencyFailure.Code, decodeBody(t, rec)["code"])
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestRegistrationController_RateLimited(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(opts *tenancy.ModuleOptions) {
		opts.RegisterRateLimit = middleware.RateLimitConfig{
			RequestsPerPeriod: 1,
			Period:            time.Minute,
			Store:             middleware.NewMemoryStore(),
			Prefix:            "register:",
		}
	})

	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)
	rec := env.register(t, "Pitta Palace", "pitta@palace.be")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
}

func TestSessionController(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)

	token := env.login(t, "/sessions", "owner@nolim.be", ownerPassword)
	assert.Len(t, strings.Split(token, "."), 3)

	rec := env.do(t, http.MethodPost, "/sessions", `{"email":"owner@nolim.be","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, services.ErrInvalidCredentials.Code, decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPost, "/superadmin/sessions", `{"email":"owner@nolim.be","password":"`+ownerPassword+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerificationController(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)
	token := env.dispatcher.lastToken(t)
	require.NotEmpty(t, token)

	rec := env.do(t, http.MethodGet, "/verify-email?token="+token, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "owner@nolim.be", body["email"])
	assert.Equal(t, "frituurnolim", body["tenant_slug"])

	profile, err := env.repos.Profiles.GetByEmail(context.Background(), "owner@nolim.be")
	require.NoError(t, err)
	assert.True(t, profile.IsEmailVerified())

	rec = env.do(t, http.MethodGet, "/verify-email?token="+token, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrVerificationTokenInvalid.Code, decodeBody(t, rec)["code"])
}

func TestVerificationController_Resend(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)
	first := env.dispatcher.lastToken(t)

	rec := env.do(t, http.MethodPost, "/verify-email/resend", `{"email":"owner@nolim.be"}`, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	second := env.dispatcher.lastToken(t)
	assert.NotEqual(t, first, second)

	rec = env.do(t, http.MethodPost, "/verify-email/resend", `{"email":"nobody@nolim.be"}`, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodPost, "/verify-email/resend", `{"email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantController_OwnerAccess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)
	require.Equal(t, http.StatusOK, env.register(t, "Pitta Palace", "pitta@palace.be").Code)
	token := env.login(t, "/sessions", "owner@nolim.be", ownerPassword)

	rec := env.do(t, http.MethodGet, "/tenants/frituurnolim", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "frituurnolim", body["tenant_slug"])
	assert.Equal(t, string(tenant.PlanStarter), body["plan"])
	assert.Equal(t, "Frituur Nolim", body["settings"].(map[string]any)["business_name"])

	rec = env.do(t, http.MethodPut, "/tenants/frituurnolim/settings", `{"primaryColor":"#ff6600"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "#ff6600", decodeBody(t, rec)["primary_color"])

	rec = env.do(t, http.MethodGet, "/tenants/pittapalace", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, services.ErrNotAuthorized.Code, decodeBody(t, rec)["code"])
}

func TestTenantController_RejectsMissingAndForgedTokens(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)

	missing := env.do(t, http.MethodGet, "/tenants/frituurnolim", "", "")
	forged := env.do(t, http.MethodGet, "/tenants/frituurnolim", "", "eyJhbGciOiJub25lIn0.e30.")

	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, http.StatusUnauthorized, forged.Code)
	assert.JSONEq(t, missing.Body.String(), forged.Body.String())
}

func TestTenantController_SuperadminOverride(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.register(t, "Frituur Nolim", "owner@nolim.be").Code)

	hash, err := bcrypt.GenerateFromPassword([]byte("operator-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = env.admins.Administrators().Create(context.Background(), administrator.New("ops@orderly.test", "Ops", string(hash)))
	require.NoError(t, err)

	token := env.login(t, "/superadmin/sessions", "ops@orderly.test", "operator-pass")

	rec := env.do(t, http.MethodGet, "/tenants/frituurnolim", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/tenants/unknownshop", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthController_MemoryStorage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "storage": "memory"}, decodeBody(t, rec))
}
