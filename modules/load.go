package modules

import (
	"time"

	"github.com/ulule/limiter/v3"

	"github.com/orderly-pos/orderly/modules/superadmin"
	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	superadminpersistence "github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/tenancy"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/mail"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence"
	tenancymiddleware "github.com/orderly-pos/orderly/modules/tenancy/middleware"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/configuration"
	"github.com/orderly-pos/orderly/pkg/middleware"
)

// BuiltInModules returns the modules of a standard deployment in
// registration order. store backs the per-route rate limiters.
func BuiltInModules(conf *configuration.Configuration, store limiter.Store) []application.Module {
	var (
		repos     *persistence.Repositories
		admins    administrator.Repository
		auditLogs domain.SuperadminAuditLogRepository
	)
	if conf.Storage == configuration.StorageMemory {
		repos = persistence.NewMemoryRepositories()
		sa := superadminpersistence.NewMemoryStore()
		admins, auditLogs = sa.Administrators(), sa.AuditLogs()
	} else {
		repos = persistence.NewPgRepositories()
		admins = superadminpersistence.NewAdministratorRepository()
		auditLogs = superadminpersistence.NewPgSuperadminAuditLogRepository()
	}

	var dispatcher services.NotificationDispatcher = mail.NewLogDispatcher(conf.Logger())
	if conf.SMTP.Enabled {
		dispatcher = mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:        conf.SMTP.Host,
			Port:        conf.SMTP.Port,
			Username:    conf.SMTP.Username,
			Password:    conf.SMTP.Password,
			From:        conf.SMTP.From,
			MaxInFlight: conf.SMTP.MaxInFlight,
		}, conf.Logger())
	}

	access := tenancymiddleware.AccessOptions{TrustIdentityHeaders: conf.Session.TrustIdentityHeaders}
	limit := func(prefix string, n int, period time.Duration) middleware.RateLimitConfig {
		if !conf.RateLimit.Enabled {
			return middleware.RateLimitConfig{}
		}
		return middleware.RateLimitConfig{
			RequestsPerPeriod: n,
			Period:            period,
			Store:             store,
			Prefix:            prefix,
		}
	}
	prov := conf.Provisioning

	return []application.Module{
		tenancy.NewModule(&tenancy.ModuleOptions{
			Repositories:   repos,
			Administrators: admins,
			Dispatcher:     dispatcher,
			Provisioning: services.ProvisioningOptions{
				TrialDays:         prov.TrialDays,
				MaxCreateAttempts: prov.MaxCreateAttempts,
				PeripheryTimeout:  prov.PeripheryTimeout,
				StarterPrice:      prov.StarterPriceMonthly(),
				ProtectedSlugs:    prov.ProtectedSlugSet(),
			},
			Verification: services.VerificationOptions{
				TTL:         prov.VerificationTTL,
				LinkBaseURL: prov.VerificationURL,
			},
			Session: services.SessionOptions{
				Secret: []byte(conf.Session.Secret),
				Issuer: conf.Session.Issuer,
				TTL:    conf.Session.Duration,
			},
			Access:            access,
			BcryptCost:        prov.BcryptCost,
			HashConcurrency:   prov.HashConcurrency,
			RegisterTimeout:   prov.RegisterTimeout,
			RegisterRateLimit: limit("register:", conf.RateLimit.RegisterPerHour, time.Hour),
			LoginRateLimit:    limit("login:", conf.RateLimit.LoginPerMinute, time.Minute),
			ResendRateLimit:   limit("resend:", conf.RateLimit.RegisterPerHour, time.Hour),
		}),
		superadmin.NewModule(&superadmin.ModuleOptions{
			Administrators: admins,
			AuditLogs:      auditLogs,
			Access:         access,
		}),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	return app.RegisterModules(externalModules...)
}
