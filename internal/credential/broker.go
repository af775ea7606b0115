// Package credential trades a long-lived API key for a short-lived session
// credential.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	sessionsPath   = "realtime/sessions"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	Timeout time.Duration
}

type Broker struct {
	client  openai.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewBroker(client openai.Client, cfg Config, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Broker{
		client:  client,
		timeout: timeout,
		log:     logger.With("component", "credential_broker"),
	}
}

// RequestCredential makes exactly one request. apiKey is only placed in the
// Authorization header and is never logged.
func (b *Broker) RequestCredential(ctx context.Context, apiKey, model, voice, instructions string) (*SessionConfig, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	body := sessionRequest{
		Model:        model,
		Voice:        voice,
		Instructions: instructions,
	}

	var cfg SessionConfig
	err := b.client.Post(ctx, sessionsPath, body, &cfg,
		option.WithAPIKey(apiKey),
		option.WithHeader("Content-Type", "application/json"),
	)
	if err != nil {
		return nil, b.wrap(err)
	}

	if cfg.ClientSecret.Value == "" {
		b.log.Warn("session response missing client secret", "session_id", cfg.ID)
		return nil, &Error{Err: ErrMissingSecret}
	}

	b.log.Info("session credential issued",
		"session_id", cfg.ID,
		"model", cfg.Model,
		"expires_at", cfg.Credential().ExpiresAt)
	return &cfg, nil
}

func (b *Broker) wrap(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		b.log.Warn("session request rejected", "status", apiErr.StatusCode)
		return &Error{StatusCode: apiErr.StatusCode, Err: err}
	}
	b.log.Warn("session request failed", "error", err)
	return &Error{Err: err}
}
