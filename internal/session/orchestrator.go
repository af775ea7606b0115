// Package session sequences a realtime connect attempt and reconciles it with
// the connection state the transport reports.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/eleven-am/realtime-client/internal/credential"
	"github.com/eleven-am/realtime-client/internal/transport"
)

const (
	DefaultModel       = "gpt-4o-realtime-preview-2024-12-17"
	DefaultVoice       = "verse"
	defaultEventBuffer = 64
)

type CredentialRequester interface {
	RequestCredential(ctx context.Context, apiKey, model, voice, instructions string) (*credential.SessionConfig, error)
}

type SignalingExchanger interface {
	Exchange(ctx context.Context, offerSDP, token, model string) (transport.Description, error)
}

type Config struct {
	Model        string
	Voice        string
	Instructions string
	EventBuffer  int
}

type command struct {
	kind   commandKind
	apiKey string
	reply  chan error
}

type commandKind int

const (
	cmdConnect commandKind = iota + 1
	cmdDisconnect
)

// Orchestrator owns one transport. All session state is confined to the run
// goroutine; callers talk to it through commands and read it through the
// state hub.
type Orchestrator struct {
	cfg      Config
	broker   CredentialRequester
	exchange SignalingExchanger
	adapter  transport.Adapter
	log      *slog.Logger

	cmds     chan command
	results  chan stepResult
	done     chan struct{}
	loopDone chan struct{}
	closeOne sync.Once
	workers  sync.WaitGroup

	states *hub[State]
	events *hub[Event]

	defaultEvents    <-chan Event
	defaultEventsOne sync.Once

	// loop-owned
	state         State
	generation    uint64
	attempt       *attempt
	transportLive bool
}

func New(cfg Config, broker CredentialRequester, exchange SignalingExchanger, adapter transport.Adapter, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	log = log.With("component", "session_orchestrator")

	o := &Orchestrator{
		cfg:      cfg,
		broker:   broker,
		exchange: exchange,
		adapter:  adapter,
		log:      log,
		cmds:     make(chan command),
		results:  make(chan stepResult),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
		states:   newHub[State]("state", true, log),
		events:   newHub[Event]("event", false, log),
		state:    Initial(),
	}
	o.states.publish(o.state)

	go o.run()
	return o
}

// Connect starts a connect attempt and returns once the attempt is accepted.
// Progress is reported on the state stream.
func (o *Orchestrator) Connect(ctx context.Context, apiKey string) error {
	return o.send(ctx, command{kind: cmdConnect, apiKey: apiKey})
}

// Disconnect returns after the transport has been disposed. It never fails
// once the orchestrator is closed.
func (o *Orchestrator) Disconnect(ctx context.Context) error {
	err := o.send(ctx, command{kind: cmdDisconnect})
	if err == ErrClosed {
		return nil
	}
	return err
}

func (o *Orchestrator) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)

	select {
	case o.cmds <- cmd:
	case <-o.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-cmd.reply
}

func (o *Orchestrator) State() State {
	s, _ := o.states.current()
	return s
}

// Subscribe delivers the current state first and then every transition.
// A subscriber that falls behind loses updates rather than stalling the
// orchestrator.
func (o *Orchestrator) Subscribe(buf int) (<-chan State, func()) {
	return o.states.subscribe(buf)
}

// Events is a shared message subscription sized by Config.EventBuffer. It is
// created on the first call, so messages published before then are not
// delivered on it.
func (o *Orchestrator) Events() <-chan Event {
	o.defaultEventsOne.Do(func() {
		o.defaultEvents, _ = o.events.subscribe(o.cfg.EventBuffer)
	})
	return o.defaultEvents
}

func (o *Orchestrator) SubscribeEvents(buf int) (<-chan Event, func()) {
	return o.events.subscribe(buf)
}

func (o *Orchestrator) Subscribers() int {
	return o.states.count()
}

// Close stops the loop, cancels any attempt and disposes the transport.
func (o *Orchestrator) Close() error {
	o.closeOne.Do(func() {
		close(o.done)
	})
	<-o.loopDone
	o.workers.Wait()
	return nil
}

func (o *Orchestrator) run() {
	defer close(o.loopDone)

	adapterEvents := o.adapter.Events()

	for {
		select {
		case cmd := <-o.cmds:
			cmd.reply <- o.handleCommand(cmd)

		case res := <-o.results:
			o.handleResult(res)

		case ev, ok := <-adapterEvents:
			if !ok {
				o.log.Warn("transport event stream closed")
				adapterEvents = nil
				continue
			}
			o.handleTransportEvent(ev)

		case <-o.done:
			o.shutdown()
			return
		}
	}
}

func (o *Orchestrator) handleCommand(cmd command) error {
	switch cmd.kind {
	case cmdConnect:
		return o.connect(cmd.apiKey)
	case cmdDisconnect:
		o.disconnect()
		return nil
	}
	return nil
}

func (o *Orchestrator) connect(apiKey string) error {
	switch o.state.Kind {
	case KindLoading, KindTokenReceived, KindSendingOffer:
		o.log.Info("connect rejected, attempt in flight", "state", o.state.Kind.String())
		return ErrConnectInProgress
	case KindConnected:
		return ErrAlreadyConnected
	case KindInitial, KindDisconnected, KindError:
	}

	if strings.TrimSpace(apiKey) == "" {
		o.setState(Failed(o.generation, ErrInvalidInput.Error(), 0))
		return ErrInvalidInput
	}

	o.generation++
	a := newAttempt(o.generation)
	o.attempt = a

	o.log.Info("connect attempt started", "attempt_id", a.id, "generation", a.gen)
	o.setState(Loading(a.gen))
	o.spawn(func() stepResult { return o.requestCredential(a, apiKey) })
	return nil
}

func (o *Orchestrator) disconnect() {
	switch o.state.Kind {
	case KindInitial:
		o.releaseTransport()
		return
	case KindDisconnected:
		return
	case KindLoading, KindTokenReceived, KindSendingOffer, KindConnected, KindError:
	}
	o.teardown(Disconnected)
	o.log.Info("session disconnected by caller")
}

func (o *Orchestrator) handleTransportEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventMessageReceived:
		o.events.publish(MessageReceived(ev.Payload))
		return
	case transport.EventConnectionStateChanged:
		o.handleConnectionState(ev.State)
		return
	}
	o.log.Warn("unknown transport event", "kind", ev.Kind.String())
}

func (o *Orchestrator) handleConnectionState(cs transport.ConnectionState) {
	switch cs {
	case transport.ConnectionStateConnecting:
		o.log.Debug("transport connecting")

	case transport.ConnectionStateConnected:
		// Without a live transport this is a leftover from a disposed peer.
		if !o.transportLive {
			o.log.Debug("ignoring connected report without a live transport")
			return
		}
		if o.attempt != nil {
			o.attempt.transportConnected = true
		}
		switch o.state.Kind {
		case KindError, KindConnected:
			return
		case KindInitial, KindLoading, KindTokenReceived, KindSendingOffer, KindDisconnected:
		}
		o.publishConnected()

	case transport.ConnectionStateDisconnected, transport.ConnectionStateFailed, transport.ConnectionStateClosed:
		if !o.transportLive {
			return
		}
		switch o.state.Kind {
		case KindInitial, KindDisconnected:
			return
		case KindLoading, KindTokenReceived, KindSendingOffer, KindConnected, KindError:
		}
		o.log.Info("transport lost", "transport_state", cs.String())
		o.teardown(Disconnected)

	default:
		o.log.Warn("unknown transport state", "transport_state", cs.String())
	}
}

func (o *Orchestrator) publishConnected() {
	if o.attempt != nil {
		if o.attempt.connectedPublished {
			return
		}
		o.attempt.connectedPublished = true
		o.log.Info("session connected", "attempt_id", o.attempt.id, "generation", o.attempt.gen)
	}
	o.setState(Connected(o.generation))
}

// teardown ends the current attempt: in-flight steps are cancelled and made
// stale, the transport is disposed and next becomes the new state.
func (o *Orchestrator) teardown(next func(gen uint64) State) {
	o.releaseTransport()
	o.generation++
	o.setState(next(o.generation))
}

func (o *Orchestrator) fail(message string, status int) {
	if o.attempt != nil {
		o.log.Warn("connect attempt failed",
			"attempt_id", o.attempt.id,
			"generation", o.attempt.gen,
			"error", message)
	}
	o.teardown(func(gen uint64) State { return Failed(gen, message, status) })
}

func (o *Orchestrator) releaseTransport() {
	if o.attempt != nil {
		o.attempt.cancel()
		o.attempt.clearCredential()
		o.attempt = nil
	}
	o.transportLive = false

	if err := o.adapter.Dispose(); err != nil {
		o.log.Warn("transport dispose failed", "error", err)
	}
}

func (o *Orchestrator) setState(s State) {
	o.log.Debug("state transition", "from", o.state.String(), "to", s.String(), "generation", s.Generation)
	o.state = s
	o.states.publish(s)
}

func (o *Orchestrator) shutdown() {
	o.releaseTransport()
	o.states.close()
	o.events.close()
	o.log.Info("orchestrator closed")
}
