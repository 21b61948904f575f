package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/configuration"
	"github.com/orderly-pos/orderly/pkg/constants"
	"github.com/orderly-pos/orderly/pkg/httpapi"
	"github.com/orderly-pos/orderly/pkg/metrics"
	"github.com/orderly-pos/orderly/pkg/middleware"
	"github.com/orderly-pos/orderly/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	// Pool is nil when running on in-memory storage.
	Pool *pgxpool.Pool
	// RateLimitStore is shared with the per-route limiters of the modules.
	RateLimitStore limiter.Store
}

// RateLimitStore picks the limiter backend from configuration. A redis store
// that cannot be created falls back to memory.
func RateLimitStore(conf *configuration.Configuration, logger *logrus.Logger) limiter.Store {
	if conf.RateLimit.Storage == "redis" {
		store, err := middleware.NewRedisStore(conf.RateLimit.RedisURL)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
	}
	return middleware.NewMemoryStore()
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),
		metrics.RequestMetrics(),
		middleware.Provide(constants.AppKey, app),
	}
	if options.Pool != nil {
		middlewares = append(middlewares,
			middleware.TracedMiddleware("database"),
			middleware.Provide(constants.PoolKey, options.Pool),
		)
	}
	middlewares = append(middlewares,
		middleware.TracedMiddleware("cors"),
		middleware.Cors(splitOrigins(conf.CorsOrigins)...),
		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(conf.RealIPHeader, conf.RequestIDHeader),
	)

	if conf.RateLimit.Enabled {
		store := options.RateLimitStore
		if store == nil {
			store = RateLimitStore(conf, options.Logger)
		}
		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             store,
				Prefix:            "global:",
			}),
		)
	}

	app.RegisterMiddleware(middlewares...)

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	return server.NewHTTPServer(app, http.HandlerFunc(notFound), http.HandlerFunc(methodNotAllowed)), nil
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
