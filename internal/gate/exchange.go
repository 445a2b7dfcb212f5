package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// ExchangeConfig holds configuration for the outbound signal exchange.
type ExchangeConfig struct {
	// WorkerCount determines how many concurrent workers transmit signals.
	WorkerCount int

	// QueueSize determines the buffer size for the outbound queue.
	QueueSize int

	// AttemptTimeout bounds a single transmission attempt.
	AttemptTimeout time.Duration

	// MaxRetries is the number of re-transmissions after the first attempt.
	MaxRetries int

	// RetryBackoff is the delay before the first retry; it doubles on
	// every subsequent attempt.
	RetryBackoff time.Duration
}

// DefaultExchangeConfig returns an ExchangeConfig with reasonable defaults.
func DefaultExchangeConfig() ExchangeConfig {
	return ExchangeConfig{
		WorkerCount:    2,
		QueueSize:      100,
		AttemptTimeout: 3 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   100 * time.Millisecond,
	}
}

// decisionResolver receives decisions produced by synchronous authority
// responses. The gate implements it.
type decisionResolver interface {
	Resolve(decision *domain.AuthorizationDecision) error
}

// malformedDecisionReason marks denials the exchange synthesized because
// the authority answered with a decision that could not be decoded or
// validated.
const malformedDecisionReason = "MALFORMED_DECISION"

// Exchange is the worker pool that transmits signed signals to the
// authority. Retries always resend the signal verbatim: the nonce, the
// timestamp and the signature are fixed at proposal time, so the authority
// can deduplicate redundant deliveries.
type Exchange struct {
	client     AuthorityClient
	resolver   decisionResolver
	queue      chan *domain.KarmaSignal
	config     ExchangeConfig
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewExchange creates a new Exchange. Panics if client or resolver is nil.
// If logger is nil, a default logger will be used.
func NewExchange(
	client AuthorityClient,
	resolver decisionResolver,
	config ExchangeConfig,
	logger *slog.Logger,
) *Exchange {
	if client == nil {
		panic("client cannot be nil")
	}
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Exchange{
		client:     client,
		resolver:   resolver,
		queue:      make(chan *domain.KarmaSignal, config.QueueSize),
		config:     config,
		logger:     logger.With(slog.String("component", "signal_exchange")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Submit enqueues a signal for transmission. Returns ErrQueueFull if the
// outbound queue cannot accept it; the caller must then fail the proposal
// rather than block.
func (e *Exchange) Submit(signal *domain.KarmaSignal) error {
	select {
	case e.queue <- signal:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker goroutines.
func (e *Exchange) Start() {
	for i := 0; i < e.config.WorkerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
}

// Stop gracefully shuts down the exchange, waiting for in-flight
// transmissions to finish.
func (e *Exchange) Stop() {
	e.cancelFunc()
	e.wg.Wait()
}

func (e *Exchange) worker(id int) {
	defer e.wg.Done()

	log := e.logger.With(slog.Int("worker_id", id))
	log.Debug("exchange worker started")

	for {
		select {
		case <-e.ctx.Done():
			log.Debug("exchange worker stopping")
			return
		case signal := <-e.queue:
			e.transmit(log, signal)
		}
	}
}

// transmit attempts delivery with bounded verbatim retries. Synchronous
// decisions are handed to the resolver; asynchronous acceptance means the
// decision will arrive through the callback surface. If every attempt
// fails the signal is abandoned and the proposer's deadline produces the
// timeout.
func (e *Exchange) transmit(log *slog.Logger, signal *domain.KarmaSignal) {
	backoff := e.config.RetryBackoff

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			log.Debug("retrying signal transmission",
				slog.String("nonce", signal.Nonce.String()),
				slog.Int("attempt", attempt))
		}

		attemptCtx, cancel := context.WithTimeout(e.ctx, e.config.AttemptTimeout)
		decision, err := e.client.Send(attemptCtx, signal)
		cancel()

		if err != nil {
			// A corrupt answer from a reachable authority is terminal,
			// not retryable: the proposal fails closed as denied.
			if errors.Is(err, ErrMalformedDecision) {
				log.Warn("malformed decision from authority, failing proposal closed",
					slog.String("nonce", signal.Nonce.String()),
					slog.String("error", err.Error()))
				e.fail(log, signal)
				return
			}

			log.Warn("signal transmission attempt failed",
				slog.String("nonce", signal.Nonce.String()),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}

		if decision == nil {
			log.Debug("signal accepted for asynchronous resolution",
				slog.String("nonce", signal.Nonce.String()))
			return
		}

		if err := e.resolver.Resolve(decision); err != nil {
			if errors.Is(err, ErrReplayDetected) || errors.Is(err, ErrUnknownNonce) {
				log.Warn("synchronous decision rejected",
					slog.String("nonce", decision.Nonce.String()),
					slog.String("error", err.Error()))
			}
		}
		return
	}

	log.Error("signal transmission exhausted all attempts",
		slog.String("nonce", signal.Nonce.String()),
		slog.Int("max_retries", e.config.MaxRetries))
}

// fail resolves a signal as denied without waiting for the proposer's
// deadline.
func (e *Exchange) fail(log *slog.Logger, signal *domain.KarmaSignal) {
	denied := &domain.AuthorizationDecision{
		Outcome:      domain.OutcomeDenied,
		Nonce:        signal.Nonce,
		OpaqueReason: malformedDecisionReason,
		DecidedAt:    time.Now().UTC(),
	}
	if err := e.resolver.Resolve(denied); err != nil {
		log.Warn("synthesized denial not delivered",
			slog.String("nonce", signal.Nonce.String()),
			slog.String("error", err.Error()))
	}
}
