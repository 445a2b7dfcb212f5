package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// PostgresLifecycleRecordStore implements the store.LifecycleRecordStore
// interface using a PostgreSQL database as the storage backend. The final
// balance snapshot is stored as a JSONB column: it is an immutable document
// read back as a whole, never queried field by field.
type PostgresLifecycleRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLifecycleRecordStore creates a new PostgreSQL implementation
// of the LifecycleRecordStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLifecycleRecordStore(
	db store.DBTX,
	logger *slog.Logger,
) *PostgresLifecycleRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLifecycleRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "lifecycle_record_store")),
	}
}

// Ensure PostgresLifecycleRecordStore implements store.LifecycleRecordStore
var _ store.LifecycleRecordStore = (*PostgresLifecycleRecordStore)(nil)

// Create implements store.LifecycleRecordStore.Create
// It persists the death snapshot. Returns store.ErrInvalidEntity if a
// record already exists for the subject: a subject dies at most once.
func (s *PostgresLifecycleRecordStore) Create(
	ctx context.Context,
	record *domain.LifecycleRecord,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("lifecycle record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return err
	}

	finalBalances, err := json.Marshal(record.FinalBalances)
	if err != nil {
		return fmt.Errorf("failed to marshal final balances: %w", err)
	}

	query := `
		INSERT INTO lifecycle_records (id, subject_id, bucket, net_karma,
			inheritance, final_balances, died_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.SubjectID,
		record.Bucket,
		record.NetKarma,
		record.Inheritance,
		finalBalances,
		record.DiedAt,
	)

	if err != nil {
		if IsUniqueViolation(err, "lifecycle_records_subject_id_key") {
			log.Warn("duplicate death record rejected",
				slog.String("subject_id", record.SubjectID.String()))
			return fmt.Errorf("%w: subject %s already has a lifecycle record",
				store.ErrInvalidEntity, record.SubjectID)
		}

		log.Error("failed to create lifecycle record",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()),
			slog.String("subject_id", record.SubjectID.String()))
		return MapError(err)
	}

	log.Info("lifecycle record created successfully",
		slog.String("record_id", record.ID.String()),
		slog.String("subject_id", record.SubjectID.String()),
		slog.String("bucket", string(record.Bucket)),
		slog.Float64("net_karma", record.NetKarma))
	return nil
}

// GetBySubject implements store.LifecycleRecordStore.GetBySubject
// It retrieves the death snapshot for a subject.
// Returns store.ErrRecordNotFound if the subject has not died.
func (s *PostgresLifecycleRecordStore) GetBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) (*domain.LifecycleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, subject_id, bucket, net_karma, inheritance, final_balances, died_at
		FROM lifecycle_records
		WHERE subject_id = $1
	`

	var (
		record        domain.LifecycleRecord
		finalBalances []byte
	)
	err := s.db.QueryRowContext(ctx, query, subjectID).Scan(
		&record.ID,
		&record.SubjectID,
		&record.Bucket,
		&record.NetKarma,
		&record.Inheritance,
		&finalBalances,
		&record.DiedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("lifecycle record not found",
				slog.String("subject_id", subjectID.String()))
			return nil, store.ErrRecordNotFound
		}

		log.Error("failed to get lifecycle record",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return nil, fmt.Errorf("failed to get lifecycle record: %w", MapError(err))
	}

	if err := json.Unmarshal(finalBalances, &record.FinalBalances); err != nil {
		return nil, fmt.Errorf("failed to unmarshal final balances: %w", err)
	}

	return &record, nil
}

// WithTx implements store.LifecycleRecordStore.WithTx
// It returns a new LifecycleRecordStore instance that uses the provided
// transaction.
func (s *PostgresLifecycleRecordStore) WithTx(tx *sql.Tx) store.LifecycleRecordStore {
	return &PostgresLifecycleRecordStore{
		db:     tx,
		logger: s.logger,
	}
}
