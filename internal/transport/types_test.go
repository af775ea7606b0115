package transport

import (
	"context"
	"errors"
	"testing"
)

func TestConnectionState_String(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{ConnectionStateConnecting, "connecting"},
		{ConnectionStateConnected, "connected"},
		{ConnectionStateDisconnected, "disconnected"},
		{ConnectionStateFailed, "failed"},
		{ConnectionStateClosed, "closed"},
		{ConnectionState(42), "ConnectionState(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEventConstructors(t *testing.T) {
	ev := ConnectionStateChanged(ConnectionStateFailed)
	if ev.Kind != EventConnectionStateChanged {
		t.Errorf("expected kind %s, got %s", EventConnectionStateChanged, ev.Kind)
	}
	if ev.State != ConnectionStateFailed {
		t.Errorf("expected state failed, got %s", ev.State)
	}

	msg := MessageReceived(`{"type":"session.created"}`)
	if msg.Kind != EventMessageReceived {
		t.Errorf("expected kind %s, got %s", EventMessageReceived, msg.Kind)
	}
	if msg.Payload != `{"type":"session.created"}` {
		t.Errorf("payload must be forwarded verbatim, got %q", msg.Payload)
	}
}

func TestDescriptionConstructors(t *testing.T) {
	if d := Offer("v=0"); d.Type != SDPTypeOffer || d.SDP != "v=0" {
		t.Errorf("unexpected offer %+v", d)
	}
	if d := Answer("v=0"); d.Type != SDPTypeAnswer || d.SDP != "v=0" {
		t.Errorf("unexpected answer %+v", d)
	}
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(NewError("create offer", cause))

	if !errors.Is(err, ErrTransport) {
		t.Error("expected errors.Is(err, ErrTransport)")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "create offer: context deadline exceeded" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var te *Error
	if !errors.As(err, &te) || te.Op != "create offer" {
		t.Errorf("expected *Error with op, got %v", err)
	}
}

func TestError_NilCause(t *testing.T) {
	err := NewError("dispose", nil)
	if err.Error() != "dispose failed" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
