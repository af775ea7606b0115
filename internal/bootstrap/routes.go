package bootstrap

import (
	"github.com/eleven-am/realtime-client/internal/gateway"
	"github.com/eleven-am/realtime-client/internal/health"
	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const version = "1.0.0"

func ProvideHealthHandler(orch *session.Orchestrator) *health.Handler {
	return health.NewHandler(orch, version)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
)

func RegisterRoutes(e *echo.Echo, sessions *gateway.Handler, healthHandler *health.Handler) {
	e.Use(healthHandler.Middleware())
	healthHandler.RegisterRoutes(e)
	sessions.RegisterRoutes(e.Group("/v1/session"))
}

var RoutesModule = fx.Options(
	fx.Invoke(RegisterRoutes),
)
