package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// SubjectProfile pairs a subject with its current token balance.
type SubjectProfile struct {
	Subject *domain.Subject      `json:"subject"`
	Balance *domain.TokenBalance `json:"balance"`
}

// SubjectService manages subject genesis and lookup. Creation is not an
// irreversible mutation, so it does not pass through the gate.
type SubjectService interface {
	// Create registers a new subject at the given role with an empty
	// balance.
	Create(ctx context.Context, role domain.Role) (*SubjectProfile, error)

	// Get returns the subject and its balance. A subject that has never
	// committed an evaluation has a zeroed balance.
	Get(ctx context.Context, subjectID uuid.UUID) (*SubjectProfile, error)
}

// subjectServiceImpl implements the SubjectService interface.
type subjectServiceImpl struct {
	db       *sql.DB
	subjects store.SubjectStore
	balances store.BalanceStore
	logger   *slog.Logger
}

// NewSubjectService creates a new SubjectService.
// It returns an error if any of the required dependencies are nil.
func NewSubjectService(
	db *sql.DB,
	subjects store.SubjectStore,
	balances store.BalanceStore,
	logger *slog.Logger,
) (SubjectService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if subjects == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "subjects cannot be nil"}
	}
	if balances == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "balances cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &subjectServiceImpl{
		db:       db,
		subjects: subjects,
		balances: balances,
		logger:   logger.With("component", "subject_service"),
	}, nil
}

// Create implements SubjectService.Create.
func (s *subjectServiceImpl) Create(
	ctx context.Context,
	role domain.Role,
) (*SubjectProfile, error) {
	subject, err := domain.NewSubject(role)
	if err != nil {
		return nil, err
	}
	balance, err := domain.NewTokenBalance(subject.ID)
	if err != nil {
		return nil, err
	}

	err = runInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.subjects.WithTx(tx).Create(ctx, subject); err != nil {
			return err
		}
		return s.balances.WithTx(tx).Put(ctx, balance)
	})
	if err != nil {
		return nil, NewServiceError("create_subject", "failed to create subject", err)
	}

	s.logger.Info("subject created",
		"subject_id", subject.ID,
		"role", subject.Role)
	return &SubjectProfile{Subject: subject, Balance: balance}, nil
}

// Get implements SubjectService.Get.
func (s *subjectServiceImpl) Get(
	ctx context.Context,
	subjectID uuid.UUID,
) (*SubjectProfile, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewServiceError("get_subject", "failed to load subject", err)
	}

	balance, err := s.balances.Get(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, store.ErrBalanceNotFound) {
			return nil, NewServiceError("get_subject", "failed to load balance", err)
		}
		balance, err = domain.NewTokenBalance(subjectID)
		if err != nil {
			return nil, err
		}
	}

	return &SubjectProfile{Subject: subject, Balance: balance}, nil
}
