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

// PostgresSubjectStore implements the store.SubjectStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubjectStore creates a new PostgreSQL implementation of the
// SubjectStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSubjectStore(db store.DBTX, logger *slog.Logger) *PostgresSubjectStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "subject_store")),
	}
}

// Ensure PostgresSubjectStore implements store.SubjectStore interface
var _ store.SubjectStore = (*PostgresSubjectStore)(nil)

// Create implements store.SubjectStore.Create
// It saves a new subject to the database, handling domain validation.
func (s *PostgresSubjectStore) Create(ctx context.Context, subject *domain.Subject) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subject.Validate(); err != nil {
		log.Warn("subject validation failed during create",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return err
	}

	query := `
		INSERT INTO subjects (id, role, rebirth_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		subject.ID,
		subject.Role,
		subject.RebirthCount,
		subject.Status,
		subject.CreatedAt,
		subject.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return MapError(err)
	}

	log.Info("subject created successfully",
		slog.String("subject_id", subject.ID.String()),
		slog.String("role", string(subject.Role)))
	return nil
}

// GetByID implements store.SubjectStore.GetByID
// It retrieves a subject by its unique ID.
// Returns store.ErrSubjectNotFound if the subject does not exist.
func (s *PostgresSubjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving subject by ID", slog.String("subject_id", id.String()))

	query := `
		SELECT id, role, rebirth_count, status, created_at, updated_at
		FROM subjects
		WHERE id = $1
	`

	var subject domain.Subject
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&subject.ID,
		&subject.Role,
		&subject.RebirthCount,
		&subject.Status,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("subject not found", slog.String("subject_id", id.String()))
			return nil, store.ErrSubjectNotFound
		}

		log.Error("failed to get subject by ID",
			slog.String("error", err.Error()),
			slog.String("subject_id", id.String()))
		return nil, fmt.Errorf("failed to get subject: %w", MapError(err))
	}

	return &subject, nil
}

// Update implements store.SubjectStore.Update
// It modifies an existing subject's role, rebirth count and lifecycle status.
// Returns store.ErrSubjectNotFound if the subject does not exist.
func (s *PostgresSubjectStore) Update(ctx context.Context, subject *domain.Subject) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subject.Validate(); err != nil {
		log.Warn("subject validation failed during update",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return err
	}

	query := `
		UPDATE subjects
		SET role = $1, rebirth_count = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		subject.Role,
		subject.RebirthCount,
		subject.Status,
		subject.UpdatedAt,
		subject.ID,
	)

	if err != nil {
		log.Error("failed to update subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected after subject update",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Debug("subject not found during update",
			slog.String("subject_id", subject.ID.String()))
		return store.ErrSubjectNotFound
	}

	log.Info("subject updated successfully",
		slog.String("subject_id", subject.ID.String()),
		slog.String("role", string(subject.Role)),
		slog.String("status", string(subject.Status)))
	return nil
}

// WithTx implements store.SubjectStore.WithTx
// It returns a new SubjectStore instance that uses the provided transaction.
// This allows for multiple operations to be executed within a single transaction.
func (s *PostgresSubjectStore) WithTx(tx *sql.Tx) store.SubjectStore {
	return &PostgresSubjectStore{
		db:     tx,
		logger: s.logger,
	}
}
