package configuration

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/orderly-pos/orderly/pkg/logging"
)

const Production = "production"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// MinBcryptCost is the lowest cost accepted from configuration.
const MinBcryptCost = 12

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"orderly"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type LogOptions struct {
	Path       string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"10"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"90"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"orderly"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
	// Registration attempts allowed per source address per hour.
	RegisterPerHour int `env:"RATE_LIMIT_REGISTER_PER_HOUR" envDefault:"5"`
	LoginPerMinute  int `env:"RATE_LIMIT_LOGIN_PER_MINUTE" envDefault:"10"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	if r.RegisterPerHour <= 0 {
		return fmt.Errorf("rate limit RegisterPerHour must be positive, got %d", r.RegisterPerHour)
	}
	if r.LoginPerMinute <= 0 {
		return fmt.Errorf("rate limit LoginPerMinute must be positive, got %d", r.LoginPerMinute)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type ProvisioningOptions struct {
	TrialDays          int           `env:"TRIAL_DAYS" envDefault:"14"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"12"`
	HashConcurrency    int64         `env:"HASH_CONCURRENCY" envDefault:"4"`
	RegisterTimeout    time.Duration `env:"REGISTER_TIMEOUT" envDefault:"30s"`
	PeripheryTimeout   time.Duration `env:"REGISTER_PERIPHERY_TIMEOUT" envDefault:"5s"`
	MaxCreateAttempts  int           `env:"REGISTER_MAX_CREATE_ATTEMPTS" envDefault:"3"`
	VerificationTTL    time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"24h"`
	VerificationURL    string        `env:"EMAIL_VERIFICATION_URL" envDefault:"http://localhost:3200/verify-email"`
	StarterPrice       string        `env:"STARTER_PRICE_MONTHLY" envDefault:"0"`
	ProtectedSlugs     []string      `env:"PROTECTED_TENANT_SLUGS" envSeparator:","`
	ProtectedSlugsFile string        `env:"PROTECTED_TENANT_SLUGS_FILE"`

	starterPrice decimal.Decimal
}

func (p *ProvisioningOptions) StarterPriceMonthly() decimal.Decimal {
	return p.starterPrice
}

func (p *ProvisioningOptions) Validate() error {
	if p.TrialDays <= 0 {
		return fmt.Errorf("TRIAL_DAYS must be positive, got %d", p.TrialDays)
	}
	if p.BcryptCost < MinBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d, got %d", MinBcryptCost, p.BcryptCost)
	}
	if p.HashConcurrency <= 0 {
		return fmt.Errorf("HASH_CONCURRENCY must be positive, got %d", p.HashConcurrency)
	}
	if p.MaxCreateAttempts <= 0 {
		return fmt.Errorf("REGISTER_MAX_CREATE_ATTEMPTS must be positive, got %d", p.MaxCreateAttempts)
	}
	if p.RegisterTimeout <= 0 || p.PeripheryTimeout <= 0 {
		return fmt.Errorf("register timeouts must be positive")
	}
	price, err := decimal.NewFromString(p.StarterPrice)
	if err != nil {
		return fmt.Errorf("invalid STARTER_PRICE_MONTHLY=%q: %w", p.StarterPrice, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("STARTER_PRICE_MONTHLY must not be negative")
	}
	p.starterPrice = price
	return nil
}

type protectedSlugsFile struct {
	Slugs []string `yaml:"protected_slugs"`
}

// loadProtectedSlugs merges slugs from ProtectedSlugsFile into ProtectedSlugs.
func (p *ProvisioningOptions) loadProtectedSlugs() error {
	if p.ProtectedSlugsFile == "" {
		return nil
	}
	raw, err := os.ReadFile(p.ProtectedSlugsFile)
	if err != nil {
		return fmt.Errorf("failed to read protected slugs file: %w", err)
	}
	var parsed protectedSlugsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse protected slugs file: %w", err)
	}
	p.ProtectedSlugs = append(p.ProtectedSlugs, parsed.Slugs...)
	return nil
}

// ProtectedSlugSet returns the normalized protected-tenant allowlist.
func (p *ProvisioningOptions) ProtectedSlugSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.ProtectedSlugs))
	for _, s := range p.ProtectedSlugs {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

type SessionOptions struct {
	Secret   string        `env:"SESSION_SECRET"`
	Issuer   string        `env:"SESSION_ISSUER" envDefault:"orderly"`
	Duration time.Duration `env:"SESSION_DURATION" envDefault:"720h"`
	// Accept x-business-id/x-auth-email style identity headers. Off unless a
	// trusted gateway in front of the service sets them.
	TrustIdentityHeaders bool `env:"SESSION_TRUST_IDENTITY_HEADERS" envDefault:"false"`
}

type SMTPOptions struct {
	Enabled  bool   `env:"SMTP_ENABLED" envDefault:"false"`
	Host     string `env:"SMTP_HOST" envDefault:"localhost"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@localhost"`

	// MaxInFlight bounds concurrent relay sessions.
	MaxInFlight int64 `env:"SMTP_MAX_IN_FLIGHT" envDefault:"4"`
}

type Configuration struct {
	Database      DatabaseOptions
	Log           LogOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	Provisioning  ProvisioningOptions
	Session       SessionOptions
	SMTP          SMTPOptions

	Storage          string `env:"STORAGE" envDefault:"postgres"`
	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	CorsOrigins      string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	// Header carrying the request id; a uuidv4 is generated when it is absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Header carrying the client address; request.RemoteAddr is used when it is absent.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile io.Closer
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

// Parse reads configuration from the environment without creating a log file.
// Commands and tests use it; the server goes through Use.
func Parse() (*Configuration, error) {
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), logging.FileOptions{
		Path:       c.Log.Path,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}

	return nil
}

func (c *Configuration) validate() error {
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.Provisioning.loadProtectedSlugs(); err != nil {
		return err
	}
	if err := c.Provisioning.Validate(); err != nil {
		return fmt.Errorf("provisioning configuration error: %w", err)
	}
	if err := c.validateSession(); err != nil {
		return err
	}

	storage := strings.ToLower(strings.TrimSpace(c.Storage))
	switch storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE=%q (expected postgres|memory)", c.Storage)
	}
	c.Storage = storage

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

func (c *Configuration) validateSession() error {
	secret := strings.TrimSpace(c.Session.Secret)
	if secret == "" {
		if c.GoAppEnvironment == Production {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		c.Session.Secret = "development-session-secret"
		return nil
	}
	if len(secret) < 32 && c.GoAppEnvironment == Production {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}
	if c.Session.Duration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive")
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
