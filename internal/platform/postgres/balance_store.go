package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// PostgresBalanceStore implements the store.BalanceStore interface
// using a PostgreSQL database as the storage backend. The penalty
// severity classes are stored as dedicated columns so the non-negativity
// invariants can be enforced with check constraints.
type PostgresBalanceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBalanceStore creates a new PostgreSQL implementation of the
// BalanceStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBalanceStore(db store.DBTX, logger *slog.Logger) *PostgresBalanceStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBalanceStore{
		db:     db,
		logger: logger.With(slog.String("component", "balance_store")),
	}
}

// Ensure PostgresBalanceStore implements store.BalanceStore interface
var _ store.BalanceStore = (*PostgresBalanceStore)(nil)

// Get implements store.BalanceStore.Get
// It retrieves the token balance for a subject.
// Returns store.ErrBalanceNotFound if no balance row exists.
func (s *PostgresBalanceStore) Get(
	ctx context.Context,
	subjectID uuid.UUID,
) (*domain.TokenBalance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving balance", slog.String("subject_id", subjectID.String()))

	query := `
		SELECT subject_id, dharma, seva, punya,
		       penalty_minor, penalty_medium, penalty_maha,
		       carry_over, in_effect, fixed, volatile, updated_at
		FROM token_balances
		WHERE subject_id = $1
	`

	var (
		balance                domain.TokenBalance
		pMinor, pMedium, pMaha int
	)
	err := s.db.QueryRowContext(ctx, query, subjectID).Scan(
		&balance.SubjectID,
		&balance.Dharma,
		&balance.Seva,
		&balance.Punya,
		&pMinor,
		&pMedium,
		&pMaha,
		&balance.CarryOver,
		&balance.InEffect,
		&balance.Fixed,
		&balance.Volatile,
		&balance.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("balance not found", slog.String("subject_id", subjectID.String()))
			return nil, store.ErrBalanceNotFound
		}

		log.Error("failed to get balance",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return nil, fmt.Errorf("failed to get balance: %w", MapError(err))
	}

	balance.Penalties = map[domain.Severity]int{
		domain.SeverityMinor:  pMinor,
		domain.SeverityMedium: pMedium,
		domain.SeverityMaha:   pMaha,
	}
	return &balance, nil
}

// Put implements store.BalanceStore.Put
// It upserts the balance row for the balance's subject, handling domain
// validation. Returns store.ErrInvalidEntity if the subject does not exist.
func (s *PostgresBalanceStore) Put(ctx context.Context, balance *domain.TokenBalance) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := balance.Validate(); err != nil {
		log.Warn("balance validation failed during put",
			slog.String("error", err.Error()),
			slog.String("subject_id", balance.SubjectID.String()))
		return err
	}

	query := `
		INSERT INTO token_balances (subject_id, dharma, seva, punya,
			penalty_minor, penalty_medium, penalty_maha,
			carry_over, in_effect, fixed, volatile, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (subject_id) DO UPDATE SET
			dharma = EXCLUDED.dharma,
			seva = EXCLUDED.seva,
			punya = EXCLUDED.punya,
			penalty_minor = EXCLUDED.penalty_minor,
			penalty_medium = EXCLUDED.penalty_medium,
			penalty_maha = EXCLUDED.penalty_maha,
			carry_over = EXCLUDED.carry_over,
			in_effect = EXCLUDED.in_effect,
			fixed = EXCLUDED.fixed,
			volatile = EXCLUDED.volatile,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		balance.SubjectID,
		balance.Dharma,
		balance.Seva,
		balance.Punya,
		balance.Penalties[domain.SeverityMinor],
		balance.Penalties[domain.SeverityMedium],
		balance.Penalties[domain.SeverityMaha],
		balance.CarryOver,
		balance.InEffect,
		balance.Fixed,
		balance.Volatile,
		balance.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to put balance",
			slog.String("error", err.Error()),
			slog.String("subject_id", balance.SubjectID.String()))
		return MapError(err)
	}

	log.Debug("balance written",
		slog.String("subject_id", balance.SubjectID.String()),
		slog.Float64("in_effect", balance.InEffect),
		slog.Float64("carry_over", balance.CarryOver))
	return nil
}

// WithTx implements store.BalanceStore.WithTx
// It returns a new BalanceStore instance that uses the provided transaction.
func (s *PostgresBalanceStore) WithTx(tx *sql.Tx) store.BalanceStore {
	return &PostgresBalanceStore{
		db:     tx,
		logger: s.logger,
	}
}
