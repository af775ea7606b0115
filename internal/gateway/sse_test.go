package gateway

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/labstack/echo/v4"
)

type mockFlusherWriter struct {
	*httptest.ResponseRecorder
}

func (m *mockFlusherWriter) Flush() {}

type nonFlusherWriter struct {
	header http.Header
}

func (w *nonFlusherWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *nonFlusherWriter) Write(data []byte) (int, error) {
	return len(data), nil
}

func (w *nonFlusherWriter) WriteHeader(statusCode int) {}

func TestNewSSEWriter_NoFlusher(t *testing.T) {
	if _, err := NewSSEWriter(&nonFlusherWriter{}); err == nil {
		t.Error("expected error for non-flusher writer")
	}
}

func TestSSEWriter_WriteFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(&mockFlusherWriter{rec})
	if err != nil {
		t.Fatalf("NewSSEWriter: %v", err)
	}

	if err := w.WriteFrame(stateFrame(session.Connected(3))); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	f, _ := eventFrame(session.MessageReceived(`{"type":"x"}`))
	if err := w.WriteFrame(f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.WriteKeepAlive(); err != nil {
		t.Fatalf("WriteKeepAlive: %v", err)
	}

	body := rec.Body.String()
	want := []string{
		"event: state\ndata: {\"type\":\"state\",\"state\":{\"state\":\"connected\"",
		"event: message\ndata: {\"type\":\"message\",\"payload\":\"{\\\"type\\\":\\\"x\\\"}\"}\n\n",
		":keepalive\n\n",
	}
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("expected body to contain %q, got %q", w, body)
		}
	}
}

func TestStreamSSE(t *testing.T) {
	ctrl := newFakeController()
	h := NewHandler(ctrl, nil, discardLogger())

	e := echo.New()
	h.RegisterRoutes(e.Group("/v1/session"))
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/session/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}

	ctrl.states <- session.Loading(1)
	ctrl.events <- session.MessageReceived("hello")

	reader := bufio.NewReader(resp.Body)
	var sawState, sawMessage bool
	for !sawState || !sawMessage {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v (state=%v message=%v)", err, sawState, sawMessage)
		}
		switch {
		case line == "event: state\n":
			sawState = true
		case line == "event: message\n":
			sawMessage = true
		}
	}
}

func TestStreamSSE_EndsWhenStateStreamCloses(t *testing.T) {
	ctrl := newFakeController()
	h := NewHandler(ctrl, nil, discardLogger())

	close(ctrl.states)

	c, rec := newTestContext(http.MethodGet, "/v1/session/events", "")
	done := make(chan error, 1)
	go func() { done <- h.StreamSSE(c) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end after state stream closed")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
