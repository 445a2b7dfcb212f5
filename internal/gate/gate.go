package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/config"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
)

// replayCapacity bounds the in-memory replay cache. Entries also age out
// on their own, so this only matters under sustained decision volume.
const replayCapacity = 4096

// localAdvisoryReason marks decisions the gate resolved itself while the
// authority was unreachable. Only non-mutating signals ever get one.
const localAdvisoryReason = "LOCAL_ADVISORY"

// Request is a proposed mutation awaiting authorization. The gate turns it
// into a signed karma signal; callers never construct signals directly.
type Request struct {
	SubjectID       uuid.UUID
	Context         domain.SignalContext
	Kind            domain.SignalKind
	Severity        float64
	ReasonCode      string
	RequiresCoreAck bool
}

// pendingSignal tracks an in-flight authorization: the signal as sent (for
// TTL checks) and the channel its decision is delivered on.
type pendingSignal struct {
	signal *domain.KarmaSignal
	ch     chan *domain.AuthorizationDecision
}

// Gate coordinates the propose/authorize lifecycle. Proposers block in
// Authorize until a decision arrives, the overall deadline passes, or
// their context is canceled. Decisions flow in through Resolve, either
// from a synchronous authority response or from the asynchronous callback
// surface; each nonce resolves exactly once.
type Gate struct {
	signer   *Signer
	exchange *Exchange
	client   AuthorityClient
	replay   *ReplayCache
	cfg      config.AuthorityConfig
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]pendingSignal

	safeMode atomic.Bool
	now      func() time.Time

	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

// NewGate creates a gate over the given authority client.
// Panics if client is nil. If log is nil, a default logger will be used.
func NewGate(cfg config.AuthorityConfig, client AuthorityClient, log *slog.Logger) (*Gate, error) {
	if client == nil {
		panic("client cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	signer, err := NewSigner(cfg.SharedSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	g := &Gate{
		signer:  signer,
		client:  client,
		replay:  NewReplayCache(2*cfg.SignalTTL, replayCapacity),
		cfg:     cfg,
		logger:  log.With(slog.String("component", "authorization_gate")),
		pending: make(map[uuid.UUID]pendingSignal),
		now:     time.Now,
	}

	exchangeCfg := DefaultExchangeConfig()
	exchangeCfg.AttemptTimeout = cfg.AttemptTimeout
	exchangeCfg.MaxRetries = cfg.MaxRetries
	g.exchange = NewExchange(client, g, exchangeCfg, log)

	return g, nil
}

// Start launches the exchange workers and the health monitor.
func (g *Gate) Start() {
	g.exchange.Start()

	ctx, cancel := context.WithCancel(context.Background())
	g.monitorCancel = cancel
	g.monitorDone = make(chan struct{})
	go g.healthMonitor(ctx)
}

// Stop shuts the gate down. Pending proposals resolve through their own
// deadlines; no new signals are transmitted.
func (g *Gate) Stop() {
	if g.monitorCancel != nil {
		g.monitorCancel()
		<-g.monitorDone
	}
	g.exchange.Stop()
}

// SafeMode reports whether the gate currently considers the authority
// unreachable.
func (g *Gate) SafeMode() bool {
	return g.safeMode.Load()
}

// Authorize proposes a mutation and blocks until it resolves. An allowed
// decision comes back with a nil error; denial, timeout and authority
// unavailability come back as the matching sentinel error. The decision,
// when non-nil, carries the nonce the commit must consume.
//
// When the authority is unreachable, non-mutating signals resolve locally
// as allowed and every mutating signal fails closed: the proposal is
// discarded, never queued for later.
func (g *Gate) Authorize(ctx context.Context, req Request) (*domain.AuthorizationDecision, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	signal, err := g.buildSignal(req)
	if err != nil {
		return nil, err
	}

	if g.safeMode.Load() {
		if signal.Signal.Mutating() {
			log.Warn("mutating proposal rejected in safe mode",
				slog.String("subject_id", signal.SubjectID),
				slog.String("signal", string(signal.Signal)))
			return nil, fmt.Errorf("%w: safe mode active, %s signal fails closed",
				ErrAuthorityUnavailable, signal.Signal)
		}

		log.Debug("advisory signal resolved locally in safe mode",
			slog.String("subject_id", signal.SubjectID))
		return &domain.AuthorizationDecision{
			Outcome:      domain.OutcomeAllowed,
			Nonce:        signal.Nonce,
			OpaqueReason: localAdvisoryReason,
			DecidedAt:    g.now().UTC(),
		}, nil
	}

	ch := make(chan *domain.AuthorizationDecision, 1)
	g.mu.Lock()
	g.pending[signal.Nonce] = pendingSignal{signal: signal, ch: ch}
	g.mu.Unlock()

	if err := g.exchange.Submit(signal); err != nil {
		g.removePending(signal.Nonce)
		return nil, fmt.Errorf("failed to submit signal: %w", err)
	}

	log.Debug("authorization proposed",
		slog.String("subject_id", signal.SubjectID),
		slog.String("signal", string(signal.Signal)),
		slog.String("nonce", signal.Nonce.String()))

	deadline := time.NewTimer(g.cfg.OverallDeadline)
	defer deadline.Stop()

	select {
	case <-ctx.Done():
		g.removePending(signal.Nonce)
		return nil, ctx.Err()

	case <-deadline.C:
		g.removePending(signal.Nonce)
		log.Warn("authorization deadline passed without a decision",
			slog.String("nonce", signal.Nonce.String()))
		return &domain.AuthorizationDecision{
			Outcome:   domain.OutcomeTimeout,
			Nonce:     signal.Nonce,
			DecidedAt: g.now().UTC(),
		}, ErrAuthorizationTimeout

	case decision := <-ch:
		return g.finalize(log, signal, decision)
	}
}

// Resolve delivers a decision to its pending proposal. It is called by the
// exchange for synchronous responses and by the callback handler for
// asynchronous ones. Returns ErrReplayDetected if the nonce was already
// resolved and ErrUnknownNonce if no proposal is waiting on it; in both
// cases the decision is dropped without side effects.
func (g *Gate) Resolve(decision *domain.AuthorizationDecision) error {
	if decision == nil || decision.Nonce == uuid.Nil {
		return fmt.Errorf("%w: decision missing nonce", ErrUnknownNonce)
	}

	if g.replay.MarkSeen(decision.Nonce) {
		g.logger.Warn("replayed decision dropped",
			slog.String("nonce", decision.Nonce.String()))
		return ErrReplayDetected
	}

	g.mu.Lock()
	p, ok := g.pending[decision.Nonce]
	if ok {
		delete(g.pending, decision.Nonce)
	}
	g.mu.Unlock()

	if !ok {
		g.logger.Warn("decision for unknown nonce dropped",
			slog.String("nonce", decision.Nonce.String()))
		return ErrUnknownNonce
	}

	p.ch <- decision
	return nil
}

// finalize maps a delivered decision onto the proposer's return values,
// discarding decisions that arrived after the signal's TTL.
func (g *Gate) finalize(
	log *slog.Logger,
	signal *domain.KarmaSignal,
	decision *domain.AuthorizationDecision,
) (*domain.AuthorizationDecision, error) {
	if g.now().After(signal.ExpiresAt()) {
		log.Warn("decision arrived after signal TTL, discarding",
			slog.String("nonce", signal.Nonce.String()),
			slog.String("outcome", string(decision.Outcome)))
		return &domain.AuthorizationDecision{
			Outcome:   domain.OutcomeTimeout,
			Nonce:     signal.Nonce,
			DecidedAt: g.now().UTC(),
		}, ErrAuthorizationTimeout
	}

	switch decision.Outcome {
	case domain.OutcomeAllowed:
		log.Info("authorization allowed",
			slog.String("subject_id", signal.SubjectID),
			slog.String("nonce", signal.Nonce.String()))
		return decision, nil

	case domain.OutcomeDenied:
		log.Info("authorization denied",
			slog.String("subject_id", signal.SubjectID),
			slog.String("nonce", signal.Nonce.String()),
			slog.String("reason", decision.OpaqueReason))
		return decision, ErrAuthorizationDenied

	case domain.OutcomeTimeout:
		return decision, ErrAuthorizationTimeout

	default:
		// An outcome the gate does not recognize is a malformed decision
		// and fails closed.
		log.Warn("decision with unrecognized outcome, failing closed",
			slog.String("nonce", signal.Nonce.String()),
			slog.String("outcome", string(decision.Outcome)))
		return &domain.AuthorizationDecision{
			Outcome:      domain.OutcomeDenied,
			Nonce:        signal.Nonce,
			OpaqueReason: malformedDecisionReason,
			DecidedAt:    g.now().UTC(),
		}, ErrAuthorizationDenied
	}
}

// buildSignal fixes the wire form of a proposal: nonce, timestamp, TTL and
// signature are all set here and never change across retries.
func (g *Gate) buildSignal(req Request) (*domain.KarmaSignal, error) {
	ttl := g.cfg.SignalTTL
	if req.Kind == domain.SignalEscalate || req.RequiresCoreAck {
		ttl = g.cfg.HighStakesTTL
	}

	signal := &domain.KarmaSignal{
		SubjectID:        req.SubjectID.String(),
		Context:          req.Context,
		Signal:           req.Kind,
		Severity:         req.Severity,
		OpaqueReasonCode: req.ReasonCode,
		TTLSeconds:       int(ttl.Seconds()),
		RequiresCoreAck:  req.RequiresCoreAck,
		Nonce:            uuid.New(),
		Timestamp:        g.now().UTC(),
	}

	if err := signal.Validate(); err != nil {
		return nil, err
	}

	signature, err := g.signer.Sign(signal)
	if err != nil {
		return nil, fmt.Errorf("failed to sign signal: %w", err)
	}
	signal.Signature = signature

	return signal, nil
}

func (g *Gate) removePending(nonce uuid.UUID) {
	g.mu.Lock()
	delete(g.pending, nonce)
	g.mu.Unlock()
}

// healthMonitor probes the authority periodically and flips safe mode on
// probe failure. Transitions are logged once, not on every tick.
func (g *Gate) healthMonitor(ctx context.Context) {
	defer close(g.monitorDone)

	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		err := g.client.CheckHealth(probeCtx)
		cancel()

		healthy := err == nil
		wasSafe := g.safeMode.Swap(!healthy)

		if !healthy && !wasSafe {
			g.logger.Error("authority unreachable, entering safe mode",
				slog.String("error", err.Error()))
		}
		if healthy && wasSafe {
			g.logger.Info("authority reachable again, leaving safe mode")
		}
	}

	probe()

	ticker := time.NewTicker(g.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
