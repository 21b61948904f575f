package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsOnlyExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "ORDERLY_TEST_ENV_LOAD=ok\n")

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(tmp))

	_ = os.Unsetenv("ORDERLY_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("ORDERLY_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("ORDERLY_TEST_ENV_LOAD"))
}

func TestParse_Defaults(t *testing.T) {
	conf, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 14, conf.Provisioning.TrialDays)
	assert.Equal(t, 12, conf.Provisioning.BcryptCost)
	assert.Equal(t, 3, conf.Provisioning.MaxCreateAttempts)
	assert.Equal(t, 24*time.Hour, conf.Provisioning.VerificationTTL)
	assert.Equal(t, StoragePostgres, conf.Storage)
	assert.False(t, conf.Session.TrustIdentityHeaders)
	assert.NotEmpty(t, conf.Session.Secret)
	assert.True(t, conf.Provisioning.StarterPriceMonthly().IsZero())
	assert.NotNil(t, conf.Logger())
}

func TestParse_RejectsWeakBcryptCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestParse_RejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE", "mongo")

	_, err := Parse()
	require.Error(t, err)
}

func TestParse_ProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("GO_APP_ENV", Production)
	t.Setenv("SESSION_SECRET", "")

	_, err := Parse()
	require.Error(t, err)
}

func TestParse_ProtectedSlugsFromEnvAndFile(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "protected.yaml")
	requireWriteFile(t, file, "protected_slugs:\n  - Demo\n  - frituurdemo\n")

	t.Setenv("PROTECTED_TENANT_SLUGS", "admin, www")
	t.Setenv("PROTECTED_TENANT_SLUGS_FILE", file)

	conf, err := Parse()
	require.NoError(t, err)

	set := conf.Provisioning.ProtectedSlugSet()
	for _, slug := range []string{"admin", "www", "demo", "frituurdemo"} {
		_, ok := set[slug]
		assert.True(t, ok, "expected %q to be protected", slug)
	}
	assert.Len(t, set, 4)
}

func TestRateLimitOptions_Validate(t *testing.T) {
	cases := []struct {
		name    string
		opts    RateLimitOptions
		wantErr bool
	}{
		{name: "memory", opts: RateLimitOptions{Storage: "memory", RegisterPerHour: 5, LoginPerMinute: 10}},
		{name: "redis without url", opts: RateLimitOptions{Storage: "redis", RegisterPerHour: 5, LoginPerMinute: 10}, wantErr: true},
		{name: "zero register limit", opts: RateLimitOptions{Storage: "memory", LoginPerMinute: 10}, wantErr: true},
		{name: "unknown storage", opts: RateLimitOptions{Storage: "disk", RegisterPerHour: 5, LoginPerMinute: 10}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
