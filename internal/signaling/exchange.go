// Package signaling posts a local SDP offer to the realtime endpoint and
// returns the remote answer.
package signaling

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/eleven-am/realtime-client/internal/transport"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	realtimePath   = "realtime"
	contentTypeSDP = "application/sdp"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	Timeout time.Duration
}

type Exchange struct {
	client  openai.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewExchange(client openai.Client, cfg Config, logger *slog.Logger) *Exchange {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Exchange{
		client:  client,
		timeout: timeout,
		log:     logger.With("component", "signaling"),
	}
}

func (x *Exchange) Exchange(ctx context.Context, offerSDP, token, model string) (transport.Description, error) {
	if strings.TrimSpace(offerSDP) == "" {
		return transport.Description{}, &Error{Err: ErrEmptyOffer}
	}
	if token == "" {
		return transport.Description{}, &Error{Err: ErrEmptyToken}
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	var raw []byte
	err := x.client.Post(ctx, realtimePath, nil, &raw,
		option.WithQuery("model", model),
		option.WithAPIKey(token),
		option.WithRequestBody(contentTypeSDP, []byte(offerSDP)),
		option.WithHeader("Accept", contentTypeSDP),
	)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			x.log.Warn("offer rejected", "status", apiErr.StatusCode, "model", model)
			return transport.Description{}, &Error{StatusCode: apiErr.StatusCode, Err: err}
		}
		x.log.Warn("offer exchange failed", "error", err)
		return transport.Description{}, &Error{Err: err}
	}

	answer := string(bytes.TrimSpace(raw))
	if answer == "" {
		return transport.Description{}, &Error{Err: ErrEmptyAnswer}
	}

	x.log.Debug("answer received", "model", model, "bytes", len(raw))
	return transport.Answer(string(raw)), nil
}
