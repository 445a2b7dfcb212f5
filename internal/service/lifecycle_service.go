package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/lifecycle"
	"github.com/yashikart/gurukul-backend--sub000/internal/events"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// DeathCheck reports whether a subject is eligible for death processing
// and what the outcome would be.
type DeathCheck struct {
	SubjectID  uuid.UUID                 `json:"subject_id"`
	InEffect   float64                   `json:"in_effect"`
	Eligible   bool                      `json:"eligible"`
	Evaluation lifecycle.DeathEvaluation `json:"evaluation"`
}

// RebirthResult pairs the successor subject with its seeded balance.
type RebirthResult struct {
	Subject *domain.Subject      `json:"subject"`
	Balance *domain.TokenBalance `json:"balance"`
}

// LifecycleService drives the death and rebirth transitions. Both are
// irreversible and pass through the gate; denial or timeout at either step
// leaves the subject exactly as it was.
type LifecycleService interface {
	// CheckDeathThreshold reports, without mutating anything, whether the
	// subject's in-effect karma has crossed the death threshold and what
	// death would produce. Works while the authority is unreachable.
	CheckDeathThreshold(ctx context.Context, subjectID uuid.UUID) (*DeathCheck, error)

	// ProcessDeath transitions an eligible subject to DECEASED and writes
	// its immutable lifecycle record.
	ProcessDeath(ctx context.Context, subjectID uuid.UUID) (*domain.LifecycleRecord, error)

	// Rebirth creates the successor of a deceased subject: a fresh
	// identity seeded only with the recorded inheritance.
	Rebirth(ctx context.Context, subjectID uuid.UUID) (*RebirthResult, error)
}

// lifecycleServiceImpl implements the LifecycleService interface.
type lifecycleServiceImpl struct {
	db       *sql.DB
	subjects store.SubjectStore
	balances store.BalanceStore
	records  store.LifecycleRecordStore
	nonces   store.ConsumedNonceStore
	gate     Authorizer
	params   lifecycle.Params
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewLifecycleService creates a new LifecycleService.
// It returns an error if any of the required dependencies are nil.
func NewLifecycleService(
	db *sql.DB,
	subjects store.SubjectStore,
	balances store.BalanceStore,
	records store.LifecycleRecordStore,
	nonces store.ConsumedNonceStore,
	authorizer Authorizer,
	params lifecycle.Params,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (LifecycleService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if subjects == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "subjects cannot be nil"}
	}
	if balances == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "balances cannot be nil"}
	}
	if records == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "records cannot be nil"}
	}
	if nonces == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "nonces cannot be nil"}
	}
	if authorizer == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "authorizer cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &lifecycleServiceImpl{
		db:       db,
		subjects: subjects,
		balances: balances,
		records:  records,
		nonces:   nonces,
		gate:     authorizer,
		params:   params,
		emitter:  emitter,
		logger:   logger.With("component", "lifecycle_service"),
	}, nil
}

// CheckDeathThreshold implements LifecycleService.CheckDeathThreshold.
func (s *lifecycleServiceImpl) CheckDeathThreshold(
	ctx context.Context,
	subjectID uuid.UUID,
) (*DeathCheck, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("death_check", "failed to load subject", err)
	}
	if !subject.Alive() {
		return nil, ErrSubjectDeceased
	}

	balance, err := s.balances.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrBalanceNotFound) {
			// No ledger activity yet: trivially alive.
			return &DeathCheck{SubjectID: subjectID}, nil
		}
		return nil, NewServiceError("death_check", "failed to load balance", err)
	}

	return &DeathCheck{
		SubjectID:  subjectID,
		InEffect:   balance.InEffect,
		Eligible:   s.params.ShouldDie(balance.InEffect),
		Evaluation: s.params.EvaluateDeath(balance),
	}, nil
}

// ProcessDeath implements LifecycleService.ProcessDeath.
func (s *lifecycleServiceImpl) ProcessDeath(
	ctx context.Context,
	subjectID uuid.UUID,
) (*domain.LifecycleRecord, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("process_death", "failed to load subject", err)
	}
	if !subject.Alive() {
		return nil, ErrSubjectDeceased
	}

	balance, err := s.balances.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrBalanceNotFound) {
			return nil, ErrThresholdNotCrossed
		}
		return nil, NewServiceError("process_death", "failed to load balance", err)
	}
	if !s.params.ShouldDie(balance.InEffect) {
		return nil, ErrThresholdNotCrossed
	}

	evaluation := s.params.EvaluateDeath(balance)
	record, err := domain.NewLifecycleRecord(
		subjectID,
		evaluation.Bucket,
		evaluation.NetKarma,
		evaluation.Inheritance,
		*balance.Clone(),
		time.Now().UTC(),
	)
	if err != nil {
		return nil, NewServiceError("process_death", "failed to build lifecycle record", err)
	}

	decision, err := s.gate.Authorize(ctx, gate.Request{
		SubjectID:       subjectID,
		Context:         domain.ContextGurukul,
		Kind:            domain.SignalEscalate,
		Severity:        1,
		ReasonCode:      "KC-DEATH-" + string(evaluation.Bucket),
		RequiresCoreAck: true,
	})
	if err != nil {
		// Denial or timeout leaves the subject ALIVE and untouched.
		s.logger.Info("death processing not authorized",
			"subject_id", subjectID,
			"error", err)
		return nil, NewServiceError("process_death", "authorization failed", err)
	}

	subject.Status = domain.StatusDeceased
	subject.UpdatedAt = time.Now().UTC()

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.nonces.WithTx(tx).Consume(ctx, decision.Nonce); err != nil {
			return err
		}
		if err := s.subjects.WithTx(tx).Update(ctx, subject); err != nil {
			return err
		}
		return s.records.WithTx(tx).Create(ctx, record)
	})
	if err != nil {
		return nil, NewServiceError("process_death", "failed to commit death", err)
	}

	s.logger.Info("subject died",
		"subject_id", subjectID,
		"bucket", evaluation.Bucket,
		"net_karma", evaluation.NetKarma)
	s.emit(ctx, events.TypeSubjectDied, subjectID, record)

	return record, nil
}

// Rebirth implements LifecycleService.Rebirth.
func (s *lifecycleServiceImpl) Rebirth(
	ctx context.Context,
	subjectID uuid.UUID,
) (*RebirthResult, error) {
	prior, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("rebirth", "failed to load subject", err)
	}
	if prior.Alive() {
		return nil, ErrSubjectAlive
	}

	record, err := s.records.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, NewServiceError("rebirth", "failed to load lifecycle record", err)
	}

	successor, err := domain.NewSubject(lifecycle.StartingRole(record.Inheritance))
	if err != nil {
		return nil, NewServiceError("rebirth", "failed to build successor", err)
	}
	successor.RebirthCount = prior.RebirthCount + 1

	// The successor carries only the inheritance; every transactional
	// counter starts at zero.
	balance, err := domain.NewTokenBalance(successor.ID)
	if err != nil {
		return nil, NewServiceError("rebirth", "failed to build successor balance", err)
	}
	balance.CarryOver = record.Inheritance

	decision, err := s.gate.Authorize(ctx, gate.Request{
		SubjectID:       subjectID,
		Context:         domain.ContextGurukul,
		Kind:            domain.SignalEscalate,
		Severity:        1,
		ReasonCode:      "KC-REBIRTH-" + string(record.Bucket),
		RequiresCoreAck: true,
	})
	if err != nil {
		s.logger.Info("rebirth not authorized",
			"subject_id", subjectID,
			"error", err)
		return nil, NewServiceError("rebirth", "authorization failed", err)
	}

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.nonces.WithTx(tx).Consume(ctx, decision.Nonce); err != nil {
			return err
		}
		if err := s.subjects.WithTx(tx).Create(ctx, successor); err != nil {
			return err
		}
		return s.balances.WithTx(tx).Put(ctx, balance)
	})
	if err != nil {
		return nil, NewServiceError("rebirth", "failed to commit rebirth", err)
	}

	s.logger.Info("subject reborn",
		"prior_subject_id", subjectID,
		"subject_id", successor.ID,
		"role", successor.Role,
		"carry_over", balance.CarryOver)
	s.emit(ctx, events.TypeSubjectReborn, successor.ID, struct {
		PriorSubjectID uuid.UUID   `json:"prior_subject_id"`
		Role           domain.Role `json:"role"`
		CarryOver      float64     `json:"carry_over"`
	}{subjectID, successor.Role, balance.CarryOver})

	return &RebirthResult{Subject: successor, Balance: balance}, nil
}

func (s *lifecycleServiceImpl) emit(
	ctx context.Context,
	eventType string,
	subjectID uuid.UUID,
	payload interface{},
) {
	event, err := events.NewOutcomeEvent(eventType, subjectID, payload)
	if err != nil {
		s.logger.Error("failed to build lifecycle event",
			"subject_id", subjectID,
			"event_type", eventType,
			"error", err)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit lifecycle event",
			"subject_id", subjectID,
			"event_id", event.ID,
			"error", err)
	}
}
