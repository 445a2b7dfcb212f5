package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/debtgraph"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// NetworkView is a subject's summary of the debt network together with
// every edge it touches, terminal ones included.
type NetworkView struct {
	Summary debtgraph.Summary  `json:"summary"`
	Edges   []*domain.DebtEdge `json:"edges"`
}

// NetworkService serves read-only debt network analytics. It never touches
// the gate, so summaries stay available while the authority is down.
type NetworkService interface {
	// NetworkSummary recomputes the subject's view of the network from
	// the current active edge set.
	NetworkSummary(ctx context.Context, subjectID uuid.UUID) (*NetworkView, error)
}

// networkServiceImpl implements the NetworkService interface.
type networkServiceImpl struct {
	subjects store.SubjectStore
	debts    store.DebtStore
	logger   *slog.Logger
}

// NewNetworkService creates a new NetworkService.
// It returns an error if any of the required dependencies are nil.
func NewNetworkService(
	subjects store.SubjectStore,
	debts store.DebtStore,
	logger *slog.Logger,
) (NetworkService, error) {
	if subjects == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "subjects cannot be nil"}
	}
	if debts == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "debts cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &networkServiceImpl{
		subjects: subjects,
		debts:    debts,
		logger:   logger.With("component", "network_service"),
	}, nil
}

// NetworkSummary implements NetworkService.NetworkSummary.
func (s *networkServiceImpl) NetworkSummary(
	ctx context.Context,
	subjectID uuid.UUID,
) (*NetworkView, error) {
	if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("network_summary", "failed to load subject", err)
	}

	active, err := s.debts.ListActive(ctx)
	if err != nil {
		return nil, NewServiceError("network_summary", "failed to load active edges", err)
	}

	edges, err := s.debts.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, NewServiceError("network_summary", "failed to load subject edges", err)
	}

	graph := debtgraph.Build(active)
	return &NetworkView{
		Summary: graph.SummaryFor(subjectID),
		Edges:   edges,
	}, nil
}
