package gateway

import (
	"net/http"
	"time"

	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/labstack/echo/v4"
)

const streamBuffer = 64

func (h *Handler) StreamSSE(c echo.Context) error {
	res := c.Response()
	res.Header().Set("Content-Type", "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")

	w, err := NewSSEWriter(res)
	if err != nil {
		h.logger.Error("failed to create SSE writer", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}
	res.WriteHeader(http.StatusOK)
	res.Flush()

	states, unsubStates := h.ctrl.Subscribe(streamBuffer)
	defer unsubStates()
	events, unsubEvents := h.ctrl.SubscribeEvents(streamBuffer)
	defer unsubEvents()

	h.logger.Debug("sse stream opened", "remote", c.RealIP())
	defer h.logger.Debug("sse stream closed", "remote", c.RealIP())

	return h.pumpSSE(c, w, states, events, sseKeepAliveInterval)
}

func (h *Handler) pumpSSE(c echo.Context, w *SSEWriter, states <-chan session.State, events <-chan session.Event, keepAlive time.Duration) error {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case s, ok := <-states:
			if !ok {
				return nil
			}
			if err := w.WriteFrame(stateFrame(s)); err != nil {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			f, known := eventFrame(ev)
			if !known {
				continue
			}
			if err := w.WriteFrame(f); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := w.WriteKeepAlive(); err != nil {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
