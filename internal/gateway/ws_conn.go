package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ClientCommand is what a WebSocket client may send. Only connect and
// disconnect are understood.
type ClientCommand struct {
	Type   string `json:"type"`
	APIKey string `json:"api_key,omitempty"`
}

type commandReply struct {
	Type  FrameType        `json:"type"`
	Error *commandErrorMsg `json:"error,omitempty"`
}

type commandErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const FrameTypeError FrameType = "error"

type wsStream struct {
	ws     *websocket.Conn
	ctrl   Controller
	logger *slog.Logger
	send   chan any
	done   chan struct{}
	once   sync.Once
}

func newWSStream(ws *websocket.Conn, ctrl Controller, logger *slog.Logger) *wsStream {
	return &wsStream{
		ws:     ws,
		ctrl:   ctrl,
		logger: logger,
		send:   make(chan any, streamBuffer),
		done:   make(chan struct{}),
	}
}

func (s *wsStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ws.Close()
	})
	return err
}

func (s *wsStream) enqueue(v any) {
	select {
	case s.send <- v:
	case <-s.done:
	default:
		s.logger.Warn("websocket send buffer full, dropping frame")
	}
}

func (s *wsStream) readPump(ctx context.Context) {
	defer func() { _ = s.Close() }()

	s.ws.SetReadLimit(maxMessageSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			s.logger.Debug("ignoring malformed client message", "error", err)
			continue
		}
		s.handleCommand(ctx, cmd)
	}
}

func (s *wsStream) handleCommand(ctx context.Context, cmd ClientCommand) {
	var err error
	switch cmd.Type {
	case "connect":
		err = s.ctrl.Connect(ctx, cmd.APIKey)
	case "disconnect":
		err = s.ctrl.Disconnect(ctx)
	default:
		s.logger.Debug("ignoring unknown client command", "type", cmd.Type)
		return
	}
	if err == nil {
		return
	}

	code, msg := commandErrorCode(err)
	s.enqueue(commandReply{Type: FrameTypeError, Error: &commandErrorMsg{Code: code, Message: msg}})
}

func (s *wsStream) writePump(ctx context.Context, states <-chan session.State, events <-chan session.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.Close()
	}()

	for {
		var out any
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case st, ok := <-states:
			if !ok {
				_ = s.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			out = stateFrame(st)
		case ev, ok := <-events:
			if !ok {
				return
			}
			f, known := eventFrame(ev)
			if !known {
				continue
			}
			out = f
		case v := <-s.send:
			out = v
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.ws.WriteJSON(out); err != nil {
			s.logger.Debug("websocket write error", "error", err)
			return
		}
	}
}

func (h *Handler) StreamWS(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	states, unsubStates := h.ctrl.Subscribe(streamBuffer)
	defer unsubStates()
	events, unsubEvents := h.ctrl.SubscribeEvents(streamBuffer)
	defer unsubEvents()

	stream := newWSStream(ws, h.ctrl, h.logger.With("remote", c.RealIP()))
	h.logger.Info("websocket stream opened", "remote", c.RealIP())

	ctx := c.Request().Context()
	go stream.writePump(ctx, states, events)
	stream.readPump(ctx)

	h.logger.Info("websocket stream closed", "remote", c.RealIP())
	return nil
}
