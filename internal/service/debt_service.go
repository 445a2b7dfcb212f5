package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/events"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// TransferResult pairs the terminated original edge with its successor.
type TransferResult struct {
	Original  *domain.DebtEdge `json:"original"`
	Successor *domain.DebtEdge `json:"successor"`
}

// DebtService manages karmic debt edges. Repayments and transfers mutate
// the network; transfers are additionally irreversible and require core
// acknowledgment from the authority.
type DebtService interface {
	// Create opens a new active debt edge from debtor to receiver.
	Create(
		ctx context.Context,
		debtorID, receiverID uuid.UUID,
		severity domain.Severity,
		amount float64,
	) (*domain.DebtEdge, error)

	// Repay applies a partial or full repayment to an edge. An invalid
	// amount leaves the edge unchanged.
	Repay(ctx context.Context, edgeID uuid.UUID, amount float64) (*domain.DebtEdge, error)

	// Transfer reassigns an edge's remaining debt to a new debtor. The
	// original edge becomes terminally transferred; the successor carries
	// the remaining amount and the copied history.
	Transfer(ctx context.Context, edgeID, newDebtorID uuid.UUID) (*TransferResult, error)
}

// debtServiceImpl implements the DebtService interface.
type debtServiceImpl struct {
	db       *sql.DB
	subjects store.SubjectStore
	debts    store.DebtStore
	nonces   store.ConsumedNonceStore
	gate     Authorizer
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewDebtService creates a new DebtService.
// It returns an error if any of the required dependencies are nil.
func NewDebtService(
	db *sql.DB,
	subjects store.SubjectStore,
	debts store.DebtStore,
	nonces store.ConsumedNonceStore,
	authorizer Authorizer,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (DebtService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if subjects == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "subjects cannot be nil"}
	}
	if debts == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "debts cannot be nil"}
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

	return &debtServiceImpl{
		db:       db,
		subjects: subjects,
		debts:    debts,
		nonces:   nonces,
		gate:     authorizer,
		emitter:  emitter,
		logger:   logger.With("component", "debt_service"),
	}, nil
}

// Create implements DebtService.Create.
func (s *debtServiceImpl) Create(
	ctx context.Context,
	debtorID, receiverID uuid.UUID,
	severity domain.Severity,
	amount float64,
) (*domain.DebtEdge, error) {
	if _, err := s.livingSubject(ctx, debtorID); err != nil {
		return nil, NewServiceError("create_debt", "failed to load debtor", err)
	}
	if _, err := s.subjects.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("create_debt", "failed to load receiver", err)
	}

	edge, err := domain.NewDebtEdge(debtorID, receiverID, severity, amount)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Authorize(ctx, gate.Request{
		SubjectID:  debtorID,
		Context:    domain.ContextFinance,
		Kind:       domain.SignalRestrict,
		Severity:   severityWeight(severity),
		ReasonCode: "KC-DEBT-OPEN",
	})
	if err != nil {
		return nil, NewServiceError("create_debt", "authorization failed", err)
	}

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.nonces.WithTx(tx).Consume(ctx, decision.Nonce); err != nil {
			return err
		}
		return s.debts.WithTx(tx).Create(ctx, edge)
	})
	if err != nil {
		return nil, NewServiceError("create_debt", "failed to commit debt edge", err)
	}

	s.logger.Info("debt edge created",
		"edge_id", edge.ID,
		"debtor_id", debtorID,
		"receiver_id", receiverID,
		"amount", amount)
	return edge, nil
}

// Repay implements DebtService.Repay.
func (s *debtServiceImpl) Repay(
	ctx context.Context,
	edgeID uuid.UUID,
	amount float64,
) (*domain.DebtEdge, error) {
	edge, err := s.loadEdge(ctx, edgeID)
	if err != nil {
		return nil, err
	}

	// The domain mutation validates the amount and rejects terminal
	// edges before anything is proposed to the authority.
	updated := cloneEdge(edge)
	if err := updated.ApplyRepayment(amount, time.Now().UTC()); err != nil {
		return nil, err
	}

	decision, err := s.gate.Authorize(ctx, gate.Request{
		SubjectID:  edge.DebtorID,
		Context:    domain.ContextFinance,
		Kind:       domain.SignalNudge,
		Severity:   severityWeight(edge.Severity),
		ReasonCode: "KC-DEBT-REPAY",
	})
	if err != nil {
		return nil, NewServiceError("repay", "authorization failed", err)
	}

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.nonces.WithTx(tx).Consume(ctx, decision.Nonce); err != nil {
			return err
		}
		return s.debts.WithTx(tx).Update(ctx, updated)
	})
	if err != nil {
		return nil, NewServiceError("repay", "failed to commit repayment", err)
	}

	s.logger.Info("repayment applied",
		"edge_id", edgeID,
		"amount", amount,
		"remaining", updated.Remaining,
		"status", updated.Status)

	if updated.Status == domain.DebtRepaid {
		s.emit(ctx, events.TypeDebtRepaid, updated.DebtorID, updated)
	}
	return updated, nil
}

// Transfer implements DebtService.Transfer.
func (s *debtServiceImpl) Transfer(
	ctx context.Context,
	edgeID, newDebtorID uuid.UUID,
) (*TransferResult, error) {
	edge, err := s.loadEdge(ctx, edgeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.livingSubject(ctx, newDebtorID); err != nil {
		return nil, NewServiceError("transfer", "failed to load new debtor", err)
	}

	updated := cloneEdge(edge)
	successor, err := updated.TransferTo(newDebtorID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Authorize(ctx, gate.Request{
		SubjectID:       edge.DebtorID,
		Context:         domain.ContextFinance,
		Kind:            domain.SignalRestrict,
		Severity:        severityWeight(edge.Severity),
		ReasonCode:      "KC-DEBT-TRANSFER",
		RequiresCoreAck: true,
	})
	if err != nil {
		// Denial or timeout leaves both edges untouched.
		return nil, NewServiceError("transfer", "authorization failed", err)
	}

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.nonces.WithTx(tx).Consume(ctx, decision.Nonce); err != nil {
			return err
		}
		txDebts := s.debts.WithTx(tx)
		if err := txDebts.Update(ctx, updated); err != nil {
			return err
		}
		return txDebts.Create(ctx, successor)
	})
	if err != nil {
		return nil, NewServiceError("transfer", "failed to commit transfer", err)
	}

	s.logger.Info("debt transferred",
		"edge_id", edgeID,
		"successor_id", successor.ID,
		"new_debtor_id", newDebtorID,
		"remaining", successor.Remaining)
	s.emit(ctx, events.TypeDebtTransferred, newDebtorID, successor)

	return &TransferResult{Original: updated, Successor: successor}, nil
}

func (s *debtServiceImpl) loadEdge(ctx context.Context, edgeID uuid.UUID) (*domain.DebtEdge, error) {
	edge, err := s.debts.GetByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, store.ErrEdgeNotFound) {
			return nil, ErrEdgeNotFound
		}
		return nil, NewServiceError("load_edge", "failed to load debt edge", err)
	}
	return edge, nil
}

func (s *debtServiceImpl) livingSubject(
	ctx context.Context,
	subjectID uuid.UUID,
) (*domain.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	if !subject.Alive() {
		return nil, ErrSubjectDeceased
	}
	return subject, nil
}

func (s *debtServiceImpl) emit(
	ctx context.Context,
	eventType string,
	subjectID uuid.UUID,
	payload interface{},
) {
	event, err := events.NewOutcomeEvent(eventType, subjectID, payload)
	if err != nil {
		s.logger.Error("failed to build debt event",
			"event_type", eventType,
			"error", err)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit debt event",
			"event_id", event.ID,
			"error", err)
	}
}

// cloneEdge deep-copies an edge so candidate mutations never touch the
// loaded record.
func cloneEdge(edge *domain.DebtEdge) *domain.DebtEdge {
	dup := *edge
	dup.History = make([]domain.Repayment, len(edge.History))
	copy(dup.History, edge.History)
	return &dup
}

// severityWeight maps a debt severity onto the signal severity scale.
func severityWeight(severity domain.Severity) float64 {
	switch severity {
	case domain.SeverityMaha:
		return 1
	case domain.SeverityMedium:
		return 0.6
	default:
		return 0.3
	}
}
