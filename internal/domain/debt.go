package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DebtStatus is the state of a debt edge. Repaid and transferred are
// terminal; no further repay or transfer is possible from them.
type DebtStatus string

const (
	DebtActive      DebtStatus = "active"
	DebtRepaid      DebtStatus = "repaid"
	DebtTransferred DebtStatus = "transferred"
)

// Terminal reports whether the status admits no further mutation.
func (s DebtStatus) Terminal() bool {
	return s == DebtRepaid || s == DebtTransferred
}

// Repayment is one entry in a debt edge's ordered repayment history.
type Repayment struct {
	Amount float64   `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
}

// DebtEdge is a directed karmic-debt relationship between two subjects.
type DebtEdge struct {
	ID         uuid.UUID   `json:"id"`
	DebtorID   uuid.UUID   `json:"debtor_id"`
	ReceiverID uuid.UUID   `json:"receiver_id"`
	Severity   Severity    `json:"severity"`
	Remaining  float64     `json:"remaining"`
	Status     DebtStatus  `json:"status"`
	History    []Repayment `json:"history"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewDebtEdge creates an active debt edge from debtor to receiver.
// Returns an error if validation fails.
func NewDebtEdge(debtorID, receiverID uuid.UUID, severity Severity, amount float64) (*DebtEdge, error) {
	edge := &DebtEdge{
		ID:         uuid.New(),
		DebtorID:   debtorID,
		ReceiverID: receiverID,
		Severity:   severity,
		Remaining:  amount,
		Status:     DebtActive,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := edge.Validate(); err != nil {
		return nil, err
	}

	return edge, nil
}

// Validate checks the structural invariants of the edge.
func (e *DebtEdge) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("%w: edge ID cannot be empty", ErrInvalidID)
	}
	if e.DebtorID == uuid.Nil || e.ReceiverID == uuid.Nil {
		return fmt.Errorf("%w: debtor and receiver IDs cannot be empty", ErrInvalidID)
	}
	if e.DebtorID == e.ReceiverID {
		return ErrSelfDebt
	}
	if !e.Severity.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, e.Severity)
	}
	if e.Remaining < 0 {
		return fmt.Errorf("%w: remaining amount cannot be negative", ErrValidation)
	}
	switch e.Status {
	case DebtActive, DebtRepaid, DebtTransferred:
	default:
		return fmt.Errorf("%w: unknown debt status %q", ErrValidation, e.Status)
	}
	return nil
}

// ApplyRepayment decrements the remaining amount and appends a history
// entry. Reaching zero sets the terminal repaid status. The edge is left
// unchanged on any precondition violation.
func (e *DebtEdge) ApplyRepayment(amount float64, now time.Time) error {
	if e.Status.Terminal() {
		return ErrEdgeTerminal
	}
	if amount <= 0 {
		return fmt.Errorf("%w: repayment amount must be positive", ErrValidation)
	}
	if amount > e.Remaining {
		return fmt.Errorf("%w: repayment %.2f exceeds remaining %.2f",
			ErrValidation, amount, e.Remaining)
	}

	e.Remaining -= amount
	e.History = append(e.History, Repayment{Amount: amount, PaidAt: now})
	if e.Remaining == 0 {
		e.Status = DebtRepaid
	}
	e.UpdatedAt = now
	return nil
}

// TransferTo creates a new active edge carrying the remaining amount and a
// copy of the prior history to the new debtor, and marks this edge
// transferred (terminal). The original edge is left unchanged on error.
func (e *DebtEdge) TransferTo(newDebtorID uuid.UUID, now time.Time) (*DebtEdge, error) {
	if e.Status.Terminal() {
		return nil, ErrEdgeTerminal
	}
	if newDebtorID == uuid.Nil {
		return nil, fmt.Errorf("%w: new debtor ID cannot be empty", ErrInvalidID)
	}
	if newDebtorID == e.ReceiverID {
		return nil, ErrSelfDebt
	}

	history := make([]Repayment, len(e.History))
	copy(history, e.History)

	successor := &DebtEdge{
		ID:         uuid.New(),
		DebtorID:   newDebtorID,
		ReceiverID: e.ReceiverID,
		Severity:   e.Severity,
		Remaining:  e.Remaining,
		Status:     DebtActive,
		History:    history,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := successor.Validate(); err != nil {
		return nil, err
	}

	e.Status = DebtTransferred
	e.UpdatedAt = now
	return successor, nil
}
