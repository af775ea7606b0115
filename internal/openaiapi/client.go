// Package openaiapi builds the shared openai-go client used for the
// credential and signaling calls.
package openaiapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultBaseURL = "https://api.openai.com/v1/"

type Config struct {
	BaseURL string
}

// NewClient returns a client that never retries. Authorization is supplied
// per request since the credential and signaling calls use different keys.
func NewClient(cfg Config, logger *slog.Logger) openai.Client {
	if logger == nil {
		logger = slog.Default()
	}

	return openai.NewClient(
		option.WithBaseURL(normalizeBaseURL(cfg.BaseURL)),
		option.WithMaxRetries(0),
		option.WithMiddleware(LoggingMiddleware(logger.With("component", "openai_http"))),
	)
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

// LoggingMiddleware logs method, path, status and latency of each request.
// Headers and bodies are never logged.
func LoggingMiddleware(logger *slog.Logger) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		resp, err := next(req)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("openai request failed",
				"method", req.Method,
				"path", req.URL.Path,
				"duration", elapsed,
				"error", err)
			return resp, err
		}

		level := slog.LevelDebug
		if resp.StatusCode >= 400 {
			level = slog.LevelWarn
		}
		logger.Log(req.Context(), level, "openai request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"duration", elapsed)
		return resp, nil
	}
}
