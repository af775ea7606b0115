package gateway

import (
	"context"
	"log/slog"

	"github.com/eleven-am/realtime-client/internal/session"
	"go.uber.org/fx"
)

func ProvideRateLimiter(lc fx.Lifecycle, cfg RateLimiterConfig) *RateLimiter {
	limiter := NewRateLimiter(cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			limiter.Stop()
			return nil
		},
	})
	return limiter
}

func ProvideHandler(orch *session.Orchestrator, limiter *RateLimiter, logger *slog.Logger) *Handler {
	return NewHandler(orch, limiter.Middleware(), logger)
}

var Module = fx.Options(
	fx.Provide(
		ProvideRateLimiter,
		ProvideHandler,
	),
)
