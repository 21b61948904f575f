package superadmin

import (
	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/modules/superadmin/infrastructure/persistence"
	"github.com/orderly-pos/orderly/modules/superadmin/presentation/controllers"
	"github.com/orderly-pos/orderly/modules/superadmin/services"
	tenancymiddleware "github.com/orderly-pos/orderly/modules/tenancy/middleware"
	tenancyservices "github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/application"
)

// ModuleOptions selects storage for the operator console. Both repositories
// default to postgres. The tenancy module must be registered first.
type ModuleOptions struct {
	Administrators administrator.Repository
	AuditLogs      domain.SuperadminAuditLogRepository
	Access         tenancymiddleware.AccessOptions
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
	admins := m.options.Administrators
	if admins == nil {
		admins = persistence.NewAdministratorRepository()
	}
	auditLogRepo := m.options.AuditLogs
	if auditLogRepo == nil {
		auditLogRepo = persistence.NewPgSuperadminAuditLogRepository()
	}

	hasher := app.Service(tenancyservices.BcryptHasher{}).(*tenancyservices.BcryptHasher)
	auditService := services.NewAuditService(auditLogRepo, app.DB(), app.Logger())
	auditService.Subscribe(app.EventPublisher())

	app.RegisterServices(
		auditService,
		services.NewSuperadminAuditLogService(auditLogRepo),
		services.NewAdministratorService(admins, hasher),
	)

	app.RegisterControllers(
		controllers.NewTenantsController(app, m.options.Access),
		controllers.NewAuditLogsController(app, m.options.Access),
	)

	return nil
}

func (m *Module) Name() string {
	return "superadmin"
}
