package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/realtime-client/internal/transport"
	"github.com/pion/webrtc/v4"
)

var ErrAlreadyInitialized = errors.New("peer already initialized")

var _ transport.Adapter = (*Peer)(nil)

// Peer binds one pion PeerConnection at a time to the transport.Adapter
// contract. epoch changes on every Initialize and Dispose so callbacks from a
// torn-down PeerConnection are dropped instead of reaching Events.
type Peer struct {
	api           *webrtc.API
	iceServers    []webrtc.ICEServer
	gatherTimeout time.Duration
	log           *slog.Logger
	events        chan transport.Event

	mu         sync.Mutex
	pc         *webrtc.PeerConnection
	dc         *webrtc.DataChannel
	audioTrack *webrtc.TrackLocalStaticRTP
	epoch      uint64
}

func (p *Peer) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return transport.NewError("initialize", err)
	}
	if p.pc != nil {
		return transport.NewError("initialize", ErrAlreadyInitialized)
	}

	pc, err := p.api.NewPeerConnection(webrtc.Configuration{
		ICEServers: p.iceServers,
	})
	if err != nil {
		return transport.NewError("initialize", err)
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"realtime-audio",
	)
	if err != nil {
		_ = pc.Close()
		return transport.NewError("initialize", err)
	}

	if _, err := pc.AddTrack(track); err != nil {
		_ = pc.Close()
		return transport.NewError("initialize", err)
	}

	dc, err := pc.CreateDataChannel(DataChannelLabel, nil)
	if err != nil {
		_ = pc.Close()
		return transport.NewError("initialize", err)
	}

	p.epoch++
	epoch := p.epoch

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		p.log.Info("peer connection state", "state", state.String())
		if mapped, ok := mapConnectionState(state); ok {
			p.emit(epoch, transport.ConnectionStateChanged(mapped))
		}
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		codec := remote.Codec()
		p.log.Info("remote track", "kind", remote.Kind().String(), "codec", codec.MimeType)
		go drainTrack(remote)
	})

	pc.OnDataChannel(func(remote *webrtc.DataChannel) {
		p.log.Debug("remote data channel", "label", remote.Label())
		p.bindDataChannel(epoch, remote)
	})

	p.bindDataChannel(epoch, dc)

	p.pc = pc
	p.dc = dc
	p.audioTrack = track

	p.log.Debug("peer initialized", "epoch", epoch)
	return nil
}

func (p *Peer) bindDataChannel(epoch uint64, dc *webrtc.DataChannel) {
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if !msg.IsString {
			return
		}
		p.emit(epoch, transport.MessageReceived(string(msg.Data)))
	})
}

func (p *Peer) emit(epoch uint64, ev transport.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if epoch != p.epoch || p.pc == nil {
		p.log.Debug("dropping event from disposed peer", "kind", ev.Kind.String())
		return
	}

	select {
	case p.events <- ev:
	default:
		p.log.Warn("event buffer full, dropping event", "kind", ev.Kind.String())
	}
}

// current returns the live PeerConnection, refusing once ctx is done so a
// superseded caller never touches a PeerConnection created after it.
func (p *Peer) current(ctx context.Context, op string) (*webrtc.PeerConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, transport.NewError(op, err)
	}
	if p.pc == nil {
		return nil, transport.NewError(op, transport.ErrNotInitialized)
	}
	return p.pc, nil
}

func (p *Peer) CreateLocalOffer(ctx context.Context) (transport.Description, error) {
	pc, err := p.current(ctx, "create offer")
	if err != nil {
		return transport.Description{}, err
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return transport.Description{}, transport.NewError("create offer", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return transport.Description{}, transport.NewError("set local description", err)
	}

	timer := time.NewTimer(p.gatherTimeout)
	defer timer.Stop()

	select {
	case <-gatherComplete:
	case <-timer.C:
		p.log.Warn("ice gathering timed out, sending partial candidates", "timeout", p.gatherTimeout)
	case <-ctx.Done():
		return transport.Description{}, transport.NewError("create offer", ctx.Err())
	}

	local := pc.LocalDescription()
	if local == nil {
		return transport.Description{}, transport.NewError("create offer", transport.ErrNotInitialized)
	}

	return transport.Offer(local.SDP), nil
}

func (p *Peer) ApplyRemoteAnswer(ctx context.Context, answer transport.Description) error {
	if answer.Type != "" && answer.Type != transport.SDPTypeAnswer {
		return transport.NewError("apply answer", errors.New("unexpected description type "+string(answer.Type)))
	}

	pc, err := p.current(ctx, "apply answer")
	if err != nil {
		return err
	}

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer.SDP,
	}); err != nil {
		return transport.NewError("apply answer", err)
	}
	return nil
}

// Dispose closes outside the lock: pion may run OnConnectionStateChange
// synchronously from Close, and that handler takes p.mu.
func (p *Peer) Dispose() error {
	p.mu.Lock()
	pc, dc := p.pc, p.dc
	p.pc = nil
	p.dc = nil
	p.audioTrack = nil
	p.epoch++
	stale := p.discardBuffered()
	p.mu.Unlock()

	if stale > 0 {
		p.log.Debug("discarded events from disposed peer", "count", stale)
	}

	if pc == nil {
		return nil
	}

	if dc != nil {
		if err := dc.Close(); err != nil {
			p.log.Debug("data channel close error", "error", err)
		}
	}

	if err := pc.Close(); err != nil {
		p.log.Error("peer close error", "error", err)
		return transport.NewError("dispose", err)
	}

	p.log.Info("peer disposed")
	return nil
}

// discardBuffered empties events still queued from the previous epoch. The
// caller holds p.mu, so emit cannot refill the buffer meanwhile.
func (p *Peer) discardBuffered() int {
	n := 0
	for {
		select {
		case <-p.events:
			n++
		default:
			return n
		}
	}
}

func (p *Peer) Events() <-chan transport.Event {
	return p.events
}

// AudioTrack is the outbound microphone track. Nothing is written to it
// here; capture belongs to the caller.
func (p *Peer) AudioTrack() *webrtc.TrackLocalStaticRTP {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audioTrack
}

// Initialized reports whether a PeerConnection is currently held.
func (p *Peer) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pc != nil
}

func drainTrack(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

func mapConnectionState(state webrtc.PeerConnectionState) (transport.ConnectionState, bool) {
	switch state {
	case webrtc.PeerConnectionStateConnecting:
		return transport.ConnectionStateConnecting, true
	case webrtc.PeerConnectionStateConnected:
		return transport.ConnectionStateConnected, true
	case webrtc.PeerConnectionStateDisconnected:
		return transport.ConnectionStateDisconnected, true
	case webrtc.PeerConnectionStateFailed:
		return transport.ConnectionStateFailed, true
	case webrtc.PeerConnectionStateClosed:
		return transport.ConnectionStateClosed, true
	case webrtc.PeerConnectionStateNew, webrtc.PeerConnectionStateUnknown:
		return 0, false
	}
	return 0, false
}
