package gateway

import (
	"github.com/eleven-am/realtime-client/internal/session"
)

type FrameType string

const (
	FrameTypeState   FrameType = "state"
	FrameTypeMessage FrameType = "message"
)

// Frame is the unit written to both stream transports. Exactly one of State
// and Payload is meaningful, selected by Type.
type Frame struct {
	Type    FrameType      `json:"type"`
	State   *session.State `json:"state,omitempty"`
	Payload string         `json:"payload,omitempty"`
}

func stateFrame(s session.State) Frame {
	s = publicState(s)
	return Frame{Type: FrameTypeState, State: &s}
}

// publicState strips the ephemeral credential. The gateway is unauthenticated
// and clients only need the kind of transition.
func publicState(s session.State) session.State {
	s.Token = ""
	return s
}

func eventFrame(ev session.Event) (Frame, bool) {
	switch ev.Kind {
	case session.EventMessageReceived:
		return Frame{Type: FrameTypeMessage, Payload: ev.Payload}, true
	}
	return Frame{}, false
}
