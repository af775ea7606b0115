package realtime

import (
	"log/slog"
	"time"

	"github.com/eleven-am/realtime-client/internal/transport"
	"github.com/pion/webrtc/v4"
)

const (
	defaultEventBuffer   = 64
	defaultGatherTimeout = 10 * time.Second
)

// Manager owns the pion API shared by every Peer it creates.
type Manager struct {
	cfg Config
	api *webrtc.API
}

func NewManager(cfg Config) (*Manager, error) {
	me := &webrtc.MediaEngine{}

	if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	se := &webrtc.SettingEngine{}

	if cfg.PortRange.Min > 0 && cfg.PortRange.Max > cfg.PortRange.Min {
		if err := se.SetEphemeralUDPPortRange(uint16(cfg.PortRange.Min), uint16(cfg.PortRange.Max)); err != nil {
			return nil, err
		}
	}

	if cfg.IncludeLoopback {
		se.SetIncludeLoopbackCandidate(true)
	}

	if cfg.Logger != nil {
		se.LoggerFactory = newSlogFactory(cfg.Logger)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(me),
		webrtc.WithSettingEngine(*se),
	)

	return &Manager{
		cfg: cfg,
		api: api,
	}, nil
}

// NewPeer returns an uninitialized Peer. No PeerConnection exists until
// Initialize is called.
func (m *Manager) NewPeer(log *slog.Logger) *Peer {
	if log == nil {
		log = slog.Default()
	}

	eventBuf := m.cfg.BufferSizes.Events
	if eventBuf <= 0 {
		eventBuf = defaultEventBuffer
	}

	gatherTimeout := m.cfg.GatherTimeout
	if gatherTimeout <= 0 {
		gatherTimeout = defaultGatherTimeout
	}

	return &Peer{
		api:           m.api,
		iceServers:    m.iceServers(),
		gatherTimeout: gatherTimeout,
		log:           log.With("component", "rtc_peer"),
		events:        make(chan transport.Event, eventBuf),
	}
}

func (m *Manager) iceServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(m.cfg.ICEServers))
	for _, s := range m.cfg.ICEServers {
		server := webrtc.ICEServer{
			URLs: s.URLs,
		}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs: []string{"stun:stun.l.google.com:19302"},
		})
	}

	return servers
}

func (m *Manager) ICEServers() []ICEServerConfig {
	return m.cfg.ICEServers
}

func (m *Manager) Config() Config {
	return m.cfg
}
