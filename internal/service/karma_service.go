package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/lifecycle"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/reward"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/scoring"
	"github.com/yashikart/gurukul-backend--sub000/internal/events"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// EvaluateRequest carries one karma evaluation: the acting subject, the
// action taken with its intensity, the platform context it happened in,
// and the interaction history backing the behavioral score.
type EvaluateRequest struct {
	SubjectID uuid.UUID
	Action    reward.Action
	Intensity float64
	Context   domain.SignalContext
	History   []scoring.Record
}

// EvaluationResult is the typed outcome of an evaluation. Applied is false
// whenever the computed mutation was not committed, with Outcome saying
// why; the computation itself is always reported.
type EvaluationResult struct {
	SubjectID     uuid.UUID              `json:"subject_id"`
	Score         float64                `json:"score"`
	Band          scoring.Band           `json:"band"`
	Trace         []scoring.Contribution `json:"trace"`
	Reward        float64                `json:"reward"`
	Role          domain.Role            `json:"role"`
	CandidateRole domain.Role            `json:"candidate_role"`
	Outcome       domain.DecisionOutcome `json:"outcome"`
	Applied       bool                   `json:"applied"`
	DeathEligible bool                   `json:"death_eligible"`
}

// KarmaService provides karma evaluation operations.
type KarmaService interface {
	// Evaluate scores the subject's behavior, proposes the resulting
	// ledger and role deltas, and commits them only if the authority
	// allows. The returned result always reports the computation; check
	// Applied and Outcome for what actually happened.
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluationResult, error)
}

// karmaServiceImpl implements the KarmaService interface.
type karmaServiceImpl struct {
	db        *sql.DB
	subjects  store.SubjectStore
	balances  store.BalanceStore
	nonces    store.ConsumedNonceStore
	gate      Authorizer
	scorer    *scoring.Scorer
	rewards   *reward.Table
	lifecycle lifecycle.Params
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewKarmaService creates a new KarmaService.
// It returns an error if any of the required dependencies are nil.
func NewKarmaService(
	db *sql.DB,
	subjects store.SubjectStore,
	balances store.BalanceStore,
	nonces store.ConsumedNonceStore,
	authorizer Authorizer,
	scorer *scoring.Scorer,
	rewards *reward.Table,
	lifecycleParams lifecycle.Params,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (KarmaService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if subjects == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "subjects cannot be nil"}
	}
	if balances == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "balances cannot be nil"}
	}
	if nonces == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "nonces cannot be nil"}
	}
	if authorizer == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "authorizer cannot be nil"}
	}
	if scorer == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "scorer cannot be nil"}
	}
	if rewards == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "rewards cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &karmaServiceImpl{
		db:        db,
		subjects:  subjects,
		balances:  balances,
		nonces:    nonces,
		gate:      authorizer,
		scorer:    scorer,
		rewards:   rewards,
		lifecycle: lifecycleParams,
		emitter:   emitter,
		logger:    logger.With("component", "karma_service"),
	}, nil
}

// Evaluate implements KarmaService.Evaluate.
func (s *karmaServiceImpl) Evaluate(
	ctx context.Context,
	req EvaluateRequest,
) (*EvaluationResult, error) {
	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("evaluate", "failed to load subject", err)
	}
	if !subject.Alive() {
		return nil, ErrSubjectDeceased
	}

	balance, err := s.balances.Get(ctx, req.SubjectID)
	if err != nil {
		if !errors.Is(err, store.ErrBalanceNotFound) {
			return nil, NewServiceError("evaluate", "failed to load balance", err)
		}
		balance, err = domain.NewTokenBalance(req.SubjectID)
		if err != nil {
			return nil, NewServiceError("evaluate", "failed to initialize balance", err)
		}
	}

	scored, err := s.scorer.Score(req.History)
	if err != nil {
		return nil, NewServiceError("evaluate", "failed to score history", err)
	}

	proposal := s.rewards.Propose(subject.Role, req.Action, req.Intensity, balance.MeritScore())

	result := &EvaluationResult{
		SubjectID:     req.SubjectID,
		Score:         scored.Score,
		Band:          scored.Band,
		Trace:         scored.Trace,
		Reward:        proposal.Value,
		Role:          subject.Role,
		CandidateRole: proposal.CandidateRole,
	}

	kind := signalKindFor(scored, proposal)
	decision, err := s.gate.Authorize(ctx, gate.Request{
		SubjectID:  req.SubjectID,
		Context:    req.Context,
		Kind:       kind,
		Severity:   math.Min(1, math.Abs(scored.Score)/scoring.MaxScore),
		ReasonCode: "KC-EVAL-" + string(scored.Band),
	})
	if err != nil {
		if decision != nil {
			// Denied or timed out: the computation is reported, nothing
			// was applied.
			result.Outcome = decision.Outcome
			s.logger.Info("evaluation not applied",
				"subject_id", req.SubjectID,
				"outcome", decision.Outcome)
			return result, nil
		}
		return nil, NewServiceError("evaluate", "authorization failed", err)
	}
	result.Outcome = decision.Outcome

	if !kind.Mutating() {
		// Advisory evaluation: nothing to commit.
		result.DeathEligible = s.lifecycle.ShouldDie(balance.InEffect)
		return result, nil
	}

	applyEvaluation(balance, scored)
	if proposal.RoleChange() {
		subject.Role = proposal.CandidateRole
		subject.UpdatedAt = balance.UpdatedAt
	}

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.nonces.WithTx(tx).Consume(ctx, decision.Nonce); err != nil {
			return err
		}
		if err := s.balances.WithTx(tx).Put(ctx, balance); err != nil {
			return err
		}
		if proposal.RoleChange() {
			if err := s.subjects.WithTx(tx).Update(ctx, subject); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNonceConsumed) {
			// The authorization was already spent; this evaluation's
			// mutation was applied exactly once by an earlier commit.
			s.logger.Warn("evaluation commit rejected, nonce already consumed",
				"subject_id", req.SubjectID,
				"nonce", decision.Nonce)
			result.Outcome = domain.OutcomeDenied
			return result, nil
		}
		return nil, NewServiceError("evaluate", "failed to commit evaluation", err)
	}

	result.Applied = true
	result.Role = subject.Role
	result.DeathEligible = s.lifecycle.ShouldDie(balance.InEffect)

	if _, err := s.rewards.Learn(proposal, scored.Score/scoring.MaxScore); err != nil {
		// The ledger commit stands; a full table only stops learning.
		s.logger.Warn("reward table update skipped",
			"subject_id", req.SubjectID,
			"error", err)
	}

	s.emitCommitted(ctx, result)
	return result, nil
}

// signalKindFor maps a computed evaluation onto the signal taxonomy. An
// evaluation that changes nothing is advisory; penalizing bands restrict,
// everything else nudges.
func signalKindFor(scored scoring.Result, proposal reward.Proposal) domain.SignalKind {
	switch {
	case scored.Score == 0 && !proposal.RoleChange():
		return domain.SignalAllow
	case scored.Band == scoring.BandLow:
		return domain.SignalRestrict
	default:
		return domain.SignalNudge
	}
}

// applyEvaluation folds a behavioral score into the balance: the in-effect
// karma absorbs the score, and the token counters record the band.
func applyEvaluation(balance *domain.TokenBalance, scored scoring.Result) {
	balance.InEffect += scored.Score

	switch scored.Band {
	case scoring.BandPositive:
		balance.Punya++
	case scoring.BandLow:
		balance.Penalties[penaltyClassFor(scored.Score)]++
	}

	balance.Touch()
}

// penaltyClassFor grades a low-band score into a penalty severity.
func penaltyClassFor(score float64) domain.Severity {
	switch magnitude := math.Abs(score); {
	case magnitude > 75:
		return domain.SeverityMaha
	case magnitude > 50:
		return domain.SeverityMedium
	default:
		return domain.SeverityMinor
	}
}

func (s *karmaServiceImpl) emitCommitted(ctx context.Context, result *EvaluationResult) {
	event, err := events.NewOutcomeEvent(events.TypeKarmaCommitted, result.SubjectID, struct {
		Score float64      `json:"score"`
		Band  scoring.Band `json:"band"`
		Role  domain.Role  `json:"role"`
	}{
		Score: result.Score,
		Band:  result.Band,
		Role:  result.Role,
	})
	if err != nil {
		s.logger.Error("failed to build karma committed event",
			"subject_id", result.SubjectID,
			"error", err)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit karma committed event",
			"subject_id", result.SubjectID,
			"event_id", event.ID,
			"error", err)
	}
}
