package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/realtime-client/internal/credential"
	"github.com/eleven-am/realtime-client/internal/gateway"
	"github.com/eleven-am/realtime-client/internal/openaiapi"
	"github.com/eleven-am/realtime-client/internal/realtime"
	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/eleven-am/realtime-client/internal/signaling"
	"github.com/openai/openai-go"
	"go.uber.org/fx"
)

func ProvideOpenAIClient(cfg *Config, logger *slog.Logger) openai.Client {
	return openaiapi.NewClient(openaiapi.Config{BaseURL: cfg.OpenAIBaseURL}, logger)
}

func ProvideCredentialBroker(client openai.Client, cfg *Config, logger *slog.Logger) *credential.Broker {
	return credential.NewBroker(client, credential.Config{Timeout: cfg.CredentialTimeout}, logger)
}

func ProvideSignalingExchange(client openai.Client, cfg *Config, logger *slog.Logger) *signaling.Exchange {
	return signaling.NewExchange(client, signaling.Config{Timeout: cfg.SignalingTimeout}, logger)
}

func ProvideRTCConfig(cfg *Config, logger *slog.Logger) realtime.Config {
	iceServers := make([]realtime.ICEServerConfig, 0, len(cfg.RTCICEServers))
	for _, s := range cfg.RTCICEServers {
		iceServers = append(iceServers, realtime.ICEServerConfig{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}

	return realtime.Config{
		ICEServers: iceServers,
		PortRange: realtime.PortRange{
			Min: cfg.RTCPortMin,
			Max: cfg.RTCPortMax,
		},
		BufferSizes: realtime.BufferSizes{
			Events: cfg.EventBuffer,
		},
		GatherTimeout:   cfg.RTCGatherTimeout,
		IncludeLoopback: cfg.RTCIncludeLoopback,
		Logger:          logger,
	}
}

func ProvideRTCManager(cfg realtime.Config) (*realtime.Manager, error) {
	return realtime.NewManager(cfg)
}

func ProvidePeer(mgr *realtime.Manager, logger *slog.Logger) *realtime.Peer {
	return mgr.NewPeer(logger)
}

func ProvideOrchestrator(
	lc fx.Lifecycle,
	cfg *Config,
	broker *credential.Broker,
	exchange *signaling.Exchange,
	peer *realtime.Peer,
	logger *slog.Logger,
) *session.Orchestrator {
	orch := session.New(session.Config{
		Model:        cfg.Model,
		Voice:        cfg.Voice,
		Instructions: cfg.Instructions,
		EventBuffer:  cfg.EventBuffer,
	}, broker, exchange, peer, logger)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return orch.Close()
		},
	})
	return orch
}

func ProvideRateLimiterConfig(cfg *Config) gateway.RateLimiterConfig {
	rl := gateway.DefaultRateLimiterConfig()
	if cfg.ConnectRate > 0 {
		rl.RequestsPerSecond = cfg.ConnectRate
	}
	if cfg.ConnectBurst > 0 {
		rl.Burst = cfg.ConnectBurst
	}
	return rl
}

var SessionModule = fx.Options(
	fx.Provide(
		ProvideOpenAIClient,
		ProvideCredentialBroker,
		ProvideSignalingExchange,
		ProvideRTCConfig,
		ProvideRTCManager,
		ProvidePeer,
		ProvideOrchestrator,
		ProvideRateLimiterConfig,
	),
)
