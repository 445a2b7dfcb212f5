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

// PostgresDebtStore implements the store.DebtStore interface
// using a PostgreSQL database as the storage backend. Repayment history
// lives in a child table keyed by edge, ordered by a sequence column so
// transferred edges preserve the original order of payments.
type PostgresDebtStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDebtStore creates a new PostgreSQL implementation of the
// DebtStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDebtStore(db store.DBTX, logger *slog.Logger) *PostgresDebtStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDebtStore{
		db:     db,
		logger: logger.With(slog.String("component", "debt_store")),
	}
}

// Ensure PostgresDebtStore implements store.DebtStore interface
var _ store.DebtStore = (*PostgresDebtStore)(nil)

// Create implements store.DebtStore.Create
// It saves a new debt edge with its (possibly copied) repayment history.
// Returns store.ErrInvalidEntity if either endpoint subject does not exist.
func (s *PostgresDebtStore) Create(ctx context.Context, edge *domain.DebtEdge) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := edge.Validate(); err != nil {
		log.Warn("debt edge validation failed during create",
			slog.String("error", err.Error()),
			slog.String("edge_id", edge.ID.String()))
		return err
	}

	query := `
		INSERT INTO debt_edges (id, debtor_id, receiver_id, severity, remaining,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		edge.ID,
		edge.DebtorID,
		edge.ReceiverID,
		edge.Severity,
		edge.Remaining,
		edge.Status,
		edge.CreatedAt,
		edge.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create debt edge",
			slog.String("error", err.Error()),
			slog.String("edge_id", edge.ID.String()),
			slog.String("debtor_id", edge.DebtorID.String()),
			slog.String("receiver_id", edge.ReceiverID.String()))
		return MapError(err)
	}

	if err := s.insertRepayments(ctx, edge.ID, edge.History, 0); err != nil {
		log.Error("failed to copy repayment history",
			slog.String("error", err.Error()),
			slog.String("edge_id", edge.ID.String()))
		return MapError(err)
	}

	log.Info("debt edge created successfully",
		slog.String("edge_id", edge.ID.String()),
		slog.String("debtor_id", edge.DebtorID.String()),
		slog.String("receiver_id", edge.ReceiverID.String()),
		slog.Float64("remaining", edge.Remaining))
	return nil
}

// GetByID implements store.DebtStore.GetByID
// It retrieves a debt edge with its ordered repayment history.
// Returns store.ErrEdgeNotFound if the edge does not exist.
func (s *PostgresDebtStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.DebtEdge, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, debtor_id, receiver_id, severity, remaining, status,
		       created_at, updated_at
		FROM debt_edges
		WHERE id = $1
	`

	var edge domain.DebtEdge
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&edge.ID,
		&edge.DebtorID,
		&edge.ReceiverID,
		&edge.Severity,
		&edge.Remaining,
		&edge.Status,
		&edge.CreatedAt,
		&edge.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("debt edge not found", slog.String("edge_id", id.String()))
			return nil, store.ErrEdgeNotFound
		}

		log.Error("failed to get debt edge",
			slog.String("error", err.Error()),
			slog.String("edge_id", id.String()))
		return nil, fmt.Errorf("failed to get debt edge: %w", MapError(err))
	}

	history, err := s.loadRepayments(ctx, edge.ID)
	if err != nil {
		log.Error("failed to load repayment history",
			slog.String("error", err.Error()),
			slog.String("edge_id", id.String()))
		return nil, fmt.Errorf("failed to load repayment history: %w", MapError(err))
	}
	edge.History = history

	return &edge, nil
}

// Update implements store.DebtStore.Update
// It persists the edge's remaining amount, status and any new history
// entries. Returns store.ErrEdgeNotFound if the edge does not exist.
func (s *PostgresDebtStore) Update(ctx context.Context, edge *domain.DebtEdge) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := edge.Validate(); err != nil {
		log.Warn("debt edge validation failed during update",
			slog.String("error", err.Error()),
			slog.String("edge_id", edge.ID.String()))
		return err
	}

	query := `
		UPDATE debt_edges
		SET remaining = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		edge.Remaining,
		edge.Status,
		edge.UpdatedAt,
		edge.ID,
	)

	if err != nil {
		log.Error("failed to update debt edge",
			slog.String("error", err.Error()),
			slog.String("edge_id", edge.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Debug("debt edge not found during update",
			slog.String("edge_id", edge.ID.String()))
		return store.ErrEdgeNotFound
	}

	// Persist only history entries the child table does not hold yet.
	var existing int
	countQuery := `SELECT COUNT(*) FROM debt_repayments WHERE edge_id = $1`
	if err := s.db.QueryRowContext(ctx, countQuery, edge.ID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count repayments: %w", MapError(err))
	}
	if existing < len(edge.History) {
		if err := s.insertRepayments(ctx, edge.ID, edge.History[existing:], existing); err != nil {
			log.Error("failed to append repayment history",
				slog.String("error", err.Error()),
				slog.String("edge_id", edge.ID.String()))
			return MapError(err)
		}
	}

	log.Info("debt edge updated successfully",
		slog.String("edge_id", edge.ID.String()),
		slog.String("status", string(edge.Status)),
		slog.Float64("remaining", edge.Remaining))
	return nil
}

// ListBySubject implements store.DebtStore.ListBySubject
// It returns every edge where the subject is debtor or receiver, in
// creation order. Returns an empty slice if none match.
func (s *PostgresDebtStore) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*domain.DebtEdge, error) {
	query := `
		SELECT id, debtor_id, receiver_id, severity, remaining, status,
		       created_at, updated_at
		FROM debt_edges
		WHERE debtor_id = $1 OR receiver_id = $1
		ORDER BY created_at ASC
	`
	return s.listEdges(ctx, query, subjectID)
}

// ListActive implements store.DebtStore.ListActive
// It returns every active edge in the network, in creation order.
func (s *PostgresDebtStore) ListActive(ctx context.Context) ([]*domain.DebtEdge, error) {
	query := `
		SELECT id, debtor_id, receiver_id, severity, remaining, status,
		       created_at, updated_at
		FROM debt_edges
		WHERE status = $1
		ORDER BY created_at ASC
	`
	return s.listEdges(ctx, query, domain.DebtActive)
}

// WithTx implements store.DebtStore.WithTx
// It returns a new DebtStore instance that uses the provided transaction.
func (s *PostgresDebtStore) WithTx(tx *sql.Tx) store.DebtStore {
	return &PostgresDebtStore{
		db:     tx,
		logger: s.logger,
	}
}

// listEdges runs an edge query and loads the repayment history for each row.
func (s *PostgresDebtStore) listEdges(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]*domain.DebtEdge, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list debt edges", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list debt edges: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	edges := make([]*domain.DebtEdge, 0)
	for rows.Next() {
		var edge domain.DebtEdge
		if err := rows.Scan(
			&edge.ID,
			&edge.DebtorID,
			&edge.ReceiverID,
			&edge.Severity,
			&edge.Remaining,
			&edge.Status,
			&edge.CreatedAt,
			&edge.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan debt edge: %w", MapError(err))
		}
		edges = append(edges, &edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debt edges: %w", MapError(err))
	}

	for _, edge := range edges {
		history, err := s.loadRepayments(ctx, edge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load repayment history: %w", MapError(err))
		}
		edge.History = history
	}

	return edges, nil
}

// loadRepayments reads the ordered repayment history for an edge.
func (s *PostgresDebtStore) loadRepayments(
	ctx context.Context,
	edgeID uuid.UUID,
) ([]domain.Repayment, error) {
	query := `
		SELECT amount, paid_at
		FROM debt_repayments
		WHERE edge_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, edgeID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var history []domain.Repayment
	for rows.Next() {
		var r domain.Repayment
		if err := rows.Scan(&r.Amount, &r.PaidAt); err != nil {
			return nil, err
		}
		history = append(history, r)
	}
	return history, rows.Err()
}

// insertRepayments appends history entries starting at the given sequence
// offset.
func (s *PostgresDebtStore) insertRepayments(
	ctx context.Context,
	edgeID uuid.UUID,
	history []domain.Repayment,
	offset int,
) error {
	query := `
		INSERT INTO debt_repayments (edge_id, seq, amount, paid_at)
		VALUES ($1, $2, $3, $4)
	`
	for i, r := range history {
		if _, err := s.db.ExecContext(ctx, query, edgeID, offset+i, r.Amount, r.PaidAt); err != nil {
			return err
		}
	}
	return nil
}
