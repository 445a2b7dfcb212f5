package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "nil stays nil",
			in:   nil,
			want: nil,
		},
		{
			name: "no rows maps to not found",
			in:   sql.ErrNoRows,
			want: store.ErrNotFound,
		},
		{
			name: "wrapped no rows maps to not found",
			in:   fmt.Errorf("query failed: %w", sql.ErrNoRows),
			want: store.ErrNotFound,
		},
		{
			name: "unique violation maps to duplicate",
			in:   &pgconn.PgError{Code: "23505", ConstraintName: "consumed_nonces_pkey"},
			want: store.ErrDuplicate,
		},
		{
			name: "foreign key violation maps to invalid entity",
			in:   &pgconn.PgError{Code: "23503", ConstraintName: "debt_edges_debtor_id_fkey"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "check violation maps to invalid entity",
			in:   &pgconn.PgError{Code: "23514", ConstraintName: "token_balances_dharma_check"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "not null violation maps to invalid entity",
			in:   &pgconn.PgError{Code: "23502", ColumnName: "role"},
			want: store.ErrInvalidEntity,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected error wrapping %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMapErrorPassesThroughUnknownErrors(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("connection reset")
	if got := MapError(sentinel); !errors.Is(got, sentinel) {
		t.Fatalf("expected original error to pass through, got %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert failed: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "consumed_nonces_pkey",
	})

	if !IsUniqueViolation(err, "") {
		t.Error("expected any-constraint match")
	}
	if !IsUniqueViolation(err, "consumed_nonces_pkey") {
		t.Error("expected named-constraint match")
	}
	if IsUniqueViolation(err, "other_constraint") {
		t.Error("did not expect match on a different constraint name")
	}
	if IsUniqueViolation(errors.New("plain"), "") {
		t.Error("did not expect match on a non-pg error")
	}
}
