package session

import (
	"fmt"
)

type Kind int

const (
	KindInitial Kind = iota
	KindLoading
	KindTokenReceived
	KindSendingOffer
	KindConnected
	KindDisconnected
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindLoading:
		return "loading"
	case KindTokenReceived:
		return "token_received"
	case KindSendingOffer:
		return "sending_offer"
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// InFlight reports whether a connect sequence is still running.
func (k Kind) InFlight() bool {
	switch k {
	case KindLoading, KindTokenReceived, KindSendingOffer:
		return true
	case KindInitial, KindConnected, KindDisconnected, KindError:
		return false
	}
	return false
}

// State is one value of the session state stream. Token is only set for
// KindTokenReceived, Message and StatusCode only for KindError.
type State struct {
	Kind       Kind   `json:"state"`
	Token      string `json:"token"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Generation uint64 `json:"generation"`
}

func Initial() State {
	return State{Kind: KindInitial}
}

func Loading(gen uint64) State {
	return State{Kind: KindLoading, Generation: gen}
}

func TokenReceived(gen uint64, token string) State {
	return State{Kind: KindTokenReceived, Token: token, Generation: gen}
}

func SendingOffer(gen uint64) State {
	return State{Kind: KindSendingOffer, Generation: gen}
}

func Connected(gen uint64) State {
	return State{Kind: KindConnected, Generation: gen}
}

func Disconnected(gen uint64) State {
	return State{Kind: KindDisconnected, Generation: gen}
}

func Failed(gen uint64, message string, status int) State {
	return State{Kind: KindError, Message: message, StatusCode: status, Generation: gen}
}

func (s State) String() string {
	switch s.Kind {
	case KindTokenReceived:
		return s.Kind.String() + "(token)"
	case KindError:
		return s.Kind.String() + "(" + s.Message + ")"
	case KindInitial, KindLoading, KindSendingOffer, KindConnected, KindDisconnected:
		return s.Kind.String()
	}
	return s.Kind.String()
}

type EventKind int

const (
	EventMessageReceived EventKind = iota + 1
)

func (k EventKind) String() string {
	switch k {
	case EventMessageReceived:
		return "message_received"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is an application-visible session event. Payload is the data channel
// text exactly as received.
type Event struct {
	Kind    EventKind `json:"type"`
	Payload string    `json:"payload"`
}

func MessageReceived(payload string) Event {
	return Event{Kind: EventMessageReceived, Payload: payload}
}
