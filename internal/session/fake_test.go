package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eleven-am/realtime-client/internal/credential"
	"github.com/eleven-am/realtime-client/internal/openaiapi"
	"github.com/eleven-am/realtime-client/internal/signaling"
	"github.com/eleven-am/realtime-client/internal/transport"
)

const (
	testToken  = "ek_123"
	testOffer  = "v=0\r\no=- offer\r\n"
	testAnswer = "v=0\r\no=- answer\r\n"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAdapter struct {
	events chan transport.Event

	mu            sync.Mutex
	initErr       error
	offerErr      error
	applyErr      error
	autoConnect   bool
	initialized   bool
	initCalls     int
	applyCalls    int
	disposeCalls  int
	appliedAnswer string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		events:      make(chan transport.Event, 16),
		autoConnect: true,
	}
}

func (f *fakeAdapter) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if err := ctx.Err(); err != nil {
		return transport.NewError("initialize", err)
	}
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeAdapter) CreateLocalOffer(ctx context.Context) (transport.Description, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offerErr != nil {
		return transport.Description{}, f.offerErr
	}
	if !f.initialized {
		return transport.Description{}, transport.NewError("create offer", transport.ErrNotInitialized)
	}
	return transport.Offer(testOffer), nil
}

func (f *fakeAdapter) ApplyRemoteAnswer(ctx context.Context, answer transport.Description) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	if f.applyErr != nil {
		return f.applyErr
	}
	f.appliedAnswer = answer.SDP
	if f.autoConnect {
		f.events <- transport.ConnectionStateChanged(transport.ConnectionStateConnecting)
		f.events <- transport.ConnectionStateChanged(transport.ConnectionStateConnected)
	}
	return nil
}

func (f *fakeAdapter) Dispose() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposeCalls++
	f.initialized = false
	return nil
}

func (f *fakeAdapter) Events() <-chan transport.Event {
	return f.events
}

func (f *fakeAdapter) emit(ev transport.Event) {
	f.events <- ev
}

type adapterStats struct {
	initialized   bool
	initCalls     int
	applyCalls    int
	disposeCalls  int
	appliedAnswer string
}

func (f *fakeAdapter) snapshot() adapterStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return adapterStats{
		initialized:   f.initialized,
		initCalls:     f.initCalls,
		applyCalls:    f.applyCalls,
		disposeCalls:  f.disposeCalls,
		appliedAnswer: f.appliedAnswer,
	}
}

// backend serves the credential and signaling endpoints.
type backend struct {
	srv *httptest.Server

	credentialCalls atomic.Int32
	signalingCalls  atomic.Int32

	credentialStatus atomic.Int32
	signalingStatus  atomic.Int32

	// credentialGate, when set, holds credential responses until closed.
	credentialGate chan struct{}
	offerBody      atomic.Value
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	b.credentialStatus.Store(http.StatusOK)
	b.signalingStatus.Store(http.StatusCreated)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/realtime/sessions", func(w http.ResponseWriter, r *http.Request) {
		b.credentialCalls.Add(1)
		if b.credentialGate != nil {
			select {
			case <-b.credentialGate:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		status := int(b.credentialStatus.Load())
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"denied"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"sess_1","object":"realtime.session","model":"`+DefaultModel+`","client_secret":{"value":"`+testToken+`","expires_at":`+futureUnix()+`}}`)
	})
	mux.HandleFunc("POST /v1/realtime", func(w http.ResponseWriter, r *http.Request) {
		b.signalingCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		b.offerBody.Store(string(body))
		status := int(b.signalingStatus.Load())
		if status >= 300 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"nope"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/sdp")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, testAnswer)
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func futureUnix() string {
	return strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
}

func newTestOrchestrator(t *testing.T, b *backend, adapter transport.Adapter) *Orchestrator {
	t.Helper()
	return newTestOrchestratorWithLogger(t, b, adapter, discardLogger())
}

func newTestOrchestratorWithLogger(t *testing.T, b *backend, adapter transport.Adapter, log *slog.Logger) *Orchestrator {
	t.Helper()
	client := openaiapi.NewClient(openaiapi.Config{BaseURL: b.srv.URL + "/v1/"}, discardLogger())
	broker := credential.NewBroker(client, credential.Config{Timeout: 5 * time.Second}, discardLogger())
	exchange := signaling.NewExchange(client, signaling.Config{Timeout: 5 * time.Second}, discardLogger())

	o := New(Config{EventBuffer: 16}, broker, exchange, adapter, log)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

// lockedBuffer collects log output written from the loop goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func nextState(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("state stream closed")
		}
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for state")
	}
	return State{}
}

func expectKinds(t *testing.T, ch <-chan State, kinds ...Kind) []State {
	t.Helper()
	got := make([]State, 0, len(kinds))
	for i, want := range kinds {
		s := nextState(t, ch)
		got = append(got, s)
		if s.Kind != want {
			t.Fatalf("state %d: expected %s, got %s (sequence so far %v)", i, want, s, got)
		}
	}
	return got
}

func expectNoState(t *testing.T, ch <-chan State, wait time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if ok {
			t.Fatalf("expected no further transition, got %s", s)
		}
	case <-time.After(wait):
	}
}
