package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// DebtStore defines the interface for debt edge persistence.
type DebtStore interface {
	// Create saves a new debt edge with its (possibly copied) repayment
	// history. The edge must be valid according to domain validation rules.
	Create(ctx context.Context, edge *domain.DebtEdge) error

	// GetByID retrieves a debt edge, including its ordered repayment
	// history. Returns ErrEdgeNotFound if the edge does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DebtEdge, error)

	// Update persists the edge's remaining amount, status and any new
	// history entries. Returns ErrEdgeNotFound if the edge does not exist.
	Update(ctx context.Context, edge *domain.DebtEdge) error

	// ListBySubject returns every edge where the subject is debtor or
	// receiver, in creation order. Returns an empty slice if none match.
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*domain.DebtEdge, error)

	// ListActive returns every active edge in the network, in creation
	// order. The debt graph analytics are recomputed from this set.
	ListActive(ctx context.Context) ([]*domain.DebtEdge, error)

	// WithTx returns a DebtStore bound to the given transaction, so a
	// transfer can terminate the original edge and create its successor
	// atomically.
	WithTx(tx *sql.Tx) DebtStore
}

// LifecycleRecordStore defines the interface for immutable death snapshots.
// Records are insert-only; there is no update operation.
type LifecycleRecordStore interface {
	// Create persists the death snapshot. Returns ErrInvalidEntity if a
	// record already exists for the subject: a subject dies at most once.
	Create(ctx context.Context, record *domain.LifecycleRecord) error

	// GetBySubject retrieves the death snapshot for a subject.
	// Returns ErrRecordNotFound if the subject has not died.
	GetBySubject(ctx context.Context, subjectID uuid.UUID) (*domain.LifecycleRecord, error)

	// WithTx returns a LifecycleRecordStore bound to the given transaction.
	WithTx(tx *sql.Tx) LifecycleRecordStore
}
