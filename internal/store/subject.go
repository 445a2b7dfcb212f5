package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// SubjectStore defines the interface for subject persistence.
type SubjectStore interface {
	// Create saves a new subject. The subject must be valid according to
	// domain validation rules.
	Create(ctx context.Context, subject *domain.Subject) error

	// GetByID retrieves a subject by its unique ID.
	// Returns ErrSubjectNotFound if the subject does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error)

	// Update modifies an existing subject's role, rebirth count and
	// lifecycle status. Returns ErrSubjectNotFound if the subject does
	// not exist.
	//
	// IMPORTANT: role and status changes are irreversible consequences.
	// Callers must only reach this method from a commit that holds an
	// allowed authorization decision, inside RunInTransaction.
	Update(ctx context.Context, subject *domain.Subject) error

	// WithTx returns a SubjectStore bound to the given transaction so
	// subject, balance and nonce writes can share one atomic commit.
	WithTx(tx *sql.Tx) SubjectStore
}

// BalanceStore defines the interface for token balance persistence.
// One balance row exists per subject.
type BalanceStore interface {
	// Get retrieves the balance for a subject.
	// Returns ErrBalanceNotFound if no balance row exists.
	Get(ctx context.Context, subjectID uuid.UUID) (*domain.TokenBalance, error)

	// Put upserts the balance row for the balance's subject. The balance
	// must satisfy the non-negativity invariants.
	//
	// IMPORTANT: balance writes are ledger mutations. They must only be
	// reached from an authorized commit inside RunInTransaction, in the
	// same transaction that consumes the authorization nonce.
	Put(ctx context.Context, balance *domain.TokenBalance) error

	// WithTx returns a BalanceStore bound to the given transaction.
	WithTx(tx *sql.Tx) BalanceStore
}

// ConsumedNonceStore records which authorization nonces have been spent on
// a commit. It is the durable half of exactly-once application: the replay
// cache in the gate bounds live nonces in memory, this store makes
// consumption survive a restart.
type ConsumedNonceStore interface {
	// Consume marks the nonce as spent. Returns ErrNonceConsumed if it
	// was already spent; the caller must then abort its mutation.
	Consume(ctx context.Context, nonce uuid.UUID) error

	// WithTx returns a ConsumedNonceStore bound to the given transaction,
	// so the consume is atomic with the mutation it authorizes.
	WithTx(tx *sql.Tx) ConsumedNonceStore
}
