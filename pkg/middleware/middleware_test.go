package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/httpapi"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	r := mux.NewRouter()
	r.Use(RateLimit(RateLimitConfig{
		RequestsPerPeriod: 2,
		Period:            time.Hour,
		Store:             NewMemoryStore(),
		Prefix:            "register:",
	}))
	r.HandleFunc("/register", okHandler).Methods(http.MethodPost)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own budget")
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(http.HandlerFunc(okHandler))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore("not a url")
	require.Error(t, err)
}

func TestRequestParams_UsesRealIPHeader(t *testing.T) {
	var ip string
	h := RequestParams("X-Real-IP", "X-Request-ID")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _ = composables.UseIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9", ip)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.1", ip)
}

func TestWithLogger_RedactsSecretsAndRecoversPanics(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(logrus.InfoLevel)

	var gotLogger bool
	h := WithLogger(log, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLogger = composables.UseLogger(r.Context()).Data["request-id"] != nil
		okHandler(w, r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@b.be","password":"hunter2hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, gotLogger)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.NotContains(t, buf.String(), "hunter2hunter2")
	assert.NotContains(t, buf.String(), "abc.def.ghi")

	panicking := WithLogger(log, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec = httptest.NewRecorder()
	require.NotPanics(t, func() {
		panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestProvide_SkipsNil(t *testing.T) {
	called := false
	h := Provide("missing", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, r.Context().Value("missing"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestWithLogger_BoundsOversizedRequestBody(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	var decodeErr error
	h := WithLogger(log, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dst map[string]any
		decodeErr = httpapi.Decode(r, &dst)
	}))

	payload := `{"name":"` + strings.Repeat("a", 8<<20) + `"}`
	body := &countingReader{r: strings.NewReader(payload)}
	req := httptest.NewRequest(http.MethodPost, "/register", body)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Error(t, decodeErr)
	assert.LessOrEqual(t, body.n, int64(httpapi.MaxBodyBytes+1))
}

func TestWithLogger_PassesBodyThrough(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	var got map[string]any
	h := WithLogger(log, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, httpapi.Decode(r, &got))
	}))

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@b.be"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "a@b.be", got["email"])
}

func TestWithLogger_TruncatesLoggedBodies(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)

	opts := DefaultLoggerOptions()
	opts.MaxBodyLength = 32
	h := WithLogger(log, opts)(http.HandlerFunc(okHandler))

	long := strings.Repeat("frituur", 40)
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"businessName":"`+long+`"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "(truncated)")
	assert.NotContains(t, buf.String(), long)
}

func TestResponseCaptureWriter_CapsCapture(t *testing.T) {
	rec := httptest.NewRecorder()
	w := wrapResponseWriter(rec, true)
	w.limit = 4

	n, err := w.Write([]byte("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "abcdefgh", rec.Body.String())
	assert.Equal(t, "abcd", w.body.String())
	assert.True(t, w.truncated)

	plain := wrapResponseWriter(httptest.NewRecorder(), false)
	_, err = plain.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Nil(t, plain.body)
}

func TestWithLogger_RedactsTokenQuery(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)

	h := WithLogger(log, DefaultLoggerOptions())(http.HandlerFunc(okHandler))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/verify-email?token=3f9a1c0de2b44b7a&lang=nl", nil))

	assert.NotContains(t, buf.String(), "3f9a1c0de2b44b7a")
	assert.Contains(t, buf.String(), "/verify-email")
	assert.Contains(t, buf.String(), "lang=nl")
}

func TestRedactQuery_LeavesOriginalUntouched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/verify-email?token=abc", nil)
	safe := redactQuery(req.URL, defaultRedactFields)

	assert.NotContains(t, safe.String(), "abc")
	assert.Equal(t, "abc", req.URL.Query().Get("token"))

	plain := httptest.NewRequest(http.MethodGet, "/health", nil)
	assert.Same(t, plain.URL, redactQuery(plain.URL, defaultRedactFields))
}
