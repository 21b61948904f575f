package application

import (
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/orderly-pos/orderly/pkg/eventbus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

// Module wires one bounded area of the system into an Application.
type Module interface {
	Name() string
	Register(app Application) error
}

// Application holds the services, controllers and middleware of a running process.
type Application interface {
	// DB is nil when the process runs on in-memory storage.
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Modules() []Module
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...any)
	RegisterModules(modules ...Module) error
	Service(service any) any
	Services() map[reflect.Type]any
}
