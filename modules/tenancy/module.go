package tenancy

import (
	"time"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence"
	tenancymiddleware "github.com/orderly-pos/orderly/modules/tenancy/middleware"
	"github.com/orderly-pos/orderly/modules/tenancy/presentation/controllers"
	"github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
	"github.com/orderly-pos/orderly/pkg/middleware"
)

type ModuleOptions struct {
	// Repositories defaults to the postgres implementations.
	Repositories *persistence.Repositories
	// Administrators backs the superadmin override in AccessGuard.
	Administrators administrator.Repository
	Dispatcher     services.NotificationDispatcher

	Provisioning services.ProvisioningOptions
	Verification services.VerificationOptions
	Session      services.SessionOptions
	Access       tenancymiddleware.AccessOptions

	BcryptCost      int
	HashConcurrency int64
	RegisterTimeout time.Duration

	RegisterRateLimit middleware.RateLimitConfig
	LoginRateLimit    middleware.RateLimitConfig
	ResendRateLimit   middleware.RateLimitConfig
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{
		options: opts,
	}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	repos := m.options.Repositories
	if repos == nil {
		repos = persistence.NewPgRepositories()
	}

	hasher := services.NewBcryptHasher(m.options.BcryptCost, m.options.HashConcurrency)
	allocator := services.NewSlugAllocator(repos.Tenants)
	verificationService := services.NewVerificationService(
		repos.Tokens,
		repos.Profiles,
		m.options.Dispatcher,
		m.options.Verification,
	)

	app.RegisterServices(
		allocator,
		hasher,
		verificationService,
		services.NewProvisioningService(
			repos.Tenants,
			repos.Profiles,
			repos.Settings,
			repos.Subscriptions,
			allocator,
			hasher,
			verificationService,
			app.EventPublisher(),
			m.options.Provisioning,
		),
		services.NewAccessGuard(repos.Profiles, m.options.Administrators),
		services.NewSessionService(repos.Profiles, m.options.Administrators, hasher, m.options.Session),
		services.NewTenantService(repos.Tenants, repos.Settings, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewHealthController(app),
		controllers.NewRegistrationController(app, controllers.RegistrationControllerOptions{
			Timeout:   m.options.RegisterTimeout,
			RateLimit: m.options.RegisterRateLimit,
		}),
		controllers.NewSessionController(app, m.options.LoginRateLimit),
		controllers.NewVerificationController(app, m.options.ResendRateLimit),
		controllers.NewTenantController(app, m.options.Access),
	)
	return nil
}

func (m *Module) Name() string {
	return "tenancy"
}
