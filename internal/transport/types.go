package transport

import "fmt"

type SDPType string

const (
	SDPTypeOffer  SDPType = "offer"
	SDPTypeAnswer SDPType = "answer"
)

type Description struct {
	Type SDPType
	SDP  string
}

func Offer(sdp string) Description {
	return Description{Type: SDPTypeOffer, SDP: sdp}
}

func Answer(sdp string) Description {
	return Description{Type: SDPTypeAnswer, SDP: sdp}
}

type ConnectionState int

const (
	ConnectionStateConnecting ConnectionState = iota + 1
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateFailed:
		return "failed"
	case ConnectionStateClosed:
		return "closed"
	}
	return fmt.Sprintf("ConnectionState(%d)", int(s))
}

type EventKind int

const (
	EventConnectionStateChanged EventKind = iota + 1
	EventMessageReceived
)

func (k EventKind) String() string {
	switch k {
	case EventConnectionStateChanged:
		return "connection_state_changed"
	case EventMessageReceived:
		return "message_received"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one notification from the engine. State is set for
// EventConnectionStateChanged, Payload for EventMessageReceived.
type Event struct {
	Kind    EventKind
	State   ConnectionState
	Payload string
}

func ConnectionStateChanged(state ConnectionState) Event {
	return Event{Kind: EventConnectionStateChanged, State: state}
}

func MessageReceived(payload string) Event {
	return Event{Kind: EventMessageReceived, Payload: payload}
}
