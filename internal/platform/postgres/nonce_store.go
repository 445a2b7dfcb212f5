package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// PostgresConsumedNonceStore implements the store.ConsumedNonceStore
// interface using a PostgreSQL database as the storage backend. The
// primary key on the nonce column is what makes consumption exactly-once:
// a second consume of the same nonce hits the unique constraint and the
// surrounding transaction rolls the associated mutation back.
type PostgresConsumedNonceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresConsumedNonceStore creates a new PostgreSQL implementation of
// the ConsumedNonceStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresConsumedNonceStore(
	db store.DBTX,
	logger *slog.Logger,
) *PostgresConsumedNonceStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresConsumedNonceStore{
		db:     db,
		logger: logger.With(slog.String("component", "consumed_nonce_store")),
	}
}

// Ensure PostgresConsumedNonceStore implements store.ConsumedNonceStore
var _ store.ConsumedNonceStore = (*PostgresConsumedNonceStore)(nil)

// Consume implements store.ConsumedNonceStore.Consume
// It marks the nonce as spent. Returns store.ErrNonceConsumed if it was
// already spent; the caller must then abort its mutation.
func (s *PostgresConsumedNonceStore) Consume(ctx context.Context, nonce uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if nonce == uuid.Nil {
		return fmt.Errorf("%w: nonce cannot be empty", store.ErrInvalidEntity)
	}

	query := `
		INSERT INTO consumed_nonces (nonce, consumed_at)
		VALUES ($1, $2)
	`
	_, err := s.db.ExecContext(ctx, query, nonce, time.Now().UTC())

	if err != nil {
		if IsUniqueViolation(err, "") {
			log.Warn("nonce already consumed, rejecting commit",
				slog.String("nonce", nonce.String()))
			return store.ErrNonceConsumed
		}

		log.Error("failed to consume nonce",
			slog.String("error", err.Error()),
			slog.String("nonce", nonce.String()))
		return MapError(err)
	}

	log.Debug("nonce consumed", slog.String("nonce", nonce.String()))
	return nil
}

// WithTx implements store.ConsumedNonceStore.WithTx
// It returns a new ConsumedNonceStore instance that uses the provided
// transaction, so the consume is atomic with the mutation it authorizes.
func (s *PostgresConsumedNonceStore) WithTx(tx *sql.Tx) store.ConsumedNonceStore {
	return &PostgresConsumedNonceStore{
		db:     tx,
		logger: s.logger,
	}
}
