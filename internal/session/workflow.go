package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/realtime-client/internal/credential"
	"github.com/eleven-am/realtime-client/internal/signaling"
	"github.com/eleven-am/realtime-client/internal/transport"
	"github.com/google/uuid"
)

var errCredentialExpired = errors.New("credential expired before offer exchange")

type stepKind int

const (
	stepCredential stepKind = iota + 1
	stepTransport
	stepExchange
	stepApply
)

func (k stepKind) String() string {
	switch k {
	case stepCredential:
		return "credential"
	case stepTransport:
		return "transport"
	case stepExchange:
		return "exchange"
	case stepApply:
		return "apply"
	}
	return fmt.Sprintf("stepKind(%d)", int(k))
}

type stepResult struct {
	gen     uint64
	step    stepKind
	session *credential.SessionConfig
	desc    transport.Description
	err     error
}

// attempt is loop-owned bookkeeping for one connect sequence.
type attempt struct {
	id     string
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc

	cred               credential.Credential
	answerApplied      bool
	transportConnected bool
	connectedPublished bool
}

func newAttempt(gen uint64) *attempt {
	ctx, cancel := context.WithCancel(context.Background())
	return &attempt{
		id:     uuid.NewString(),
		gen:    gen,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (a *attempt) clearCredential() {
	a.cred = credential.Credential{}
}

// spawn runs one workflow step off the loop. The result is posted back and
// dropped if the orchestrator has shut down.
func (o *Orchestrator) spawn(step func() stepResult) {
	o.workers.Add(1)
	go func() {
		defer o.workers.Done()
		res := step()
		select {
		case o.results <- res:
		case <-o.done:
		}
	}()
}

func (o *Orchestrator) requestCredential(a *attempt, apiKey string) stepResult {
	cfg, err := o.broker.RequestCredential(a.ctx, apiKey, o.cfg.Model, o.cfg.Voice, o.cfg.Instructions)
	return stepResult{gen: a.gen, step: stepCredential, session: cfg, err: err}
}

func (o *Orchestrator) setupTransport(a *attempt) stepResult {
	if err := o.adapter.Initialize(a.ctx); err != nil {
		return stepResult{gen: a.gen, step: stepTransport, err: err}
	}
	offer, err := o.adapter.CreateLocalOffer(a.ctx)
	return stepResult{gen: a.gen, step: stepTransport, desc: offer, err: err}
}

func (o *Orchestrator) exchangeOffer(a *attempt, offer transport.Description, token string) stepResult {
	answer, err := o.exchange.Exchange(a.ctx, offer.SDP, token, o.cfg.Model)
	return stepResult{gen: a.gen, step: stepExchange, desc: answer, err: err}
}

func (o *Orchestrator) applyAnswer(a *attempt, answer transport.Description) stepResult {
	err := o.adapter.ApplyRemoteAnswer(a.ctx, answer)
	return stepResult{gen: a.gen, step: stepApply, err: err}
}

func (o *Orchestrator) handleResult(res stepResult) {
	a := o.attempt
	if a == nil || res.gen != a.gen || res.gen != o.generation {
		o.log.Debug("discarding stale step result", "step", res.step.String(), "generation", res.gen, "current", o.generation)
		return
	}

	if res.err != nil {
		msg, status := describeFailure(res.step, res.err)
		o.fail(msg, status)
		return
	}

	switch res.step {
	case stepCredential:
		if res.session == nil {
			o.fail(phaseCredential+": empty session response", 0)
			return
		}
		a.cred = res.session.Credential()
		o.setState(TokenReceived(a.gen, a.cred.Value))
		o.spawn(func() stepResult { return o.setupTransport(a) })

	case stepTransport:
		o.transportLive = true
		o.setState(SendingOffer(a.gen))

		if a.cred.Expired(time.Now()) {
			o.fail(phaseCredential+": "+errCredentialExpired.Error(), 0)
			return
		}
		token := a.cred.Value
		a.clearCredential()
		offer := res.desc
		o.spawn(func() stepResult { return o.exchangeOffer(a, offer, token) })

	case stepExchange:
		answer := res.desc
		o.spawn(func() stepResult { return o.applyAnswer(a, answer) })

	case stepApply:
		a.answerApplied = true
		if a.transportConnected {
			o.publishConnected()
			return
		}
		o.log.Debug("answer applied, waiting for transport", "attempt_id", a.id)

	default:
		o.log.Warn("unknown step result", "step", res.step.String())
	}
}

const (
	phaseCredential = "credential request failed"
	phaseTransport  = "transport setup failed"
	phaseExchange   = "offer exchange failed"
	phaseApply      = "apply answer failed"
)

// describeFailure renders a step error as the Error state message. HTTP
// failures are reported by status code only.
func describeFailure(step stepKind, err error) (string, int) {
	var phase string
	switch step {
	case stepCredential:
		phase = phaseCredential
	case stepTransport:
		phase = phaseTransport
	case stepExchange:
		phase = phaseExchange
	case stepApply:
		phase = phaseApply
	default:
		phase = step.String() + " failed"
	}

	var credErr *credential.Error
	if errors.As(err, &credErr) && credErr.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", phase, credErr.StatusCode), credErr.StatusCode
	}
	var sigErr *signaling.Error
	if errors.As(err, &sigErr) && sigErr.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", phase, sigErr.StatusCode), sigErr.StatusCode
	}
	return fmt.Sprintf("%s: %v", phase, err), 0
}
