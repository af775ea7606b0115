// Package gateway exposes an Orchestrator over HTTP: connect and disconnect
// commands, a state snapshot, and SSE or WebSocket streams of state
// transitions and data channel messages.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/eleven-am/realtime-client/internal/shared"
	"github.com/labstack/echo/v4"
)

// Controller is the part of *session.Orchestrator the gateway drives.
type Controller interface {
	Connect(ctx context.Context, apiKey string) error
	Disconnect(ctx context.Context) error
	State() session.State
	Subscribe(buf int) (<-chan session.State, func())
	SubscribeEvents(buf int) (<-chan session.Event, func())
}

type ConnectRequest struct {
	APIKey string `json:"api_key"`
}

type Handler struct {
	ctrl        Controller
	connectRate echo.MiddlewareFunc
	logger      *slog.Logger
}

func NewHandler(ctrl Controller, connectRate echo.MiddlewareFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ctrl:        ctrl,
		connectRate: connectRate,
		logger:      logger.With("component", "session_gateway"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	if h.connectRate != nil {
		g.POST("/connect", h.Connect, h.connectRate)
	} else {
		g.POST("/connect", h.Connect)
	}
	g.POST("/disconnect", h.Disconnect)
	g.GET("", h.State)
	g.GET("/events", h.StreamSSE)
	g.GET("/ws", h.StreamWS)
}

func (h *Handler) Connect(c echo.Context) error {
	var req ConnectRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if err := h.ctrl.Connect(c.Request().Context(), req.APIKey); err != nil {
		return h.commandError(err)
	}
	return c.JSON(http.StatusAccepted, publicState(h.ctrl.State()))
}

func (h *Handler) Disconnect(c echo.Context) error {
	if err := h.ctrl.Disconnect(c.Request().Context()); err != nil {
		return h.commandError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, publicState(h.ctrl.State()))
}

func (h *Handler) commandError(err error) error {
	code, msg := commandErrorCode(err)
	switch code {
	case "invalid_input":
		return shared.BadRequest(code, msg)
	case "connect_in_progress", "already_connected":
		return shared.Conflict(code, msg)
	case "closed", "canceled":
		return shared.ServiceUnavailable(code, msg)
	}
	h.logger.Error("session command failed", "error", err)
	return shared.InternalError(code, msg)
}

func commandErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		return "invalid_input", err.Error()
	case errors.Is(err, session.ErrConnectInProgress):
		return "connect_in_progress", err.Error()
	case errors.Is(err, session.ErrAlreadyConnected):
		return "already_connected", err.Error()
	case errors.Is(err, session.ErrClosed):
		return "closed", err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled", err.Error()
	}
	return "internal_error", "session command failed"
}
