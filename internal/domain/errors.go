// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or operation input
	// fails validation. This is often wrapped with a more specific message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRole is returned when a role is not one of the ordered
	// role tiers.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidSeverity is returned when a severity class is not one of
	// the three-level enumeration.
	ErrInvalidSeverity = errors.New("invalid severity class")

	// ErrInvalidSignal is returned when a karma signal fails validation.
	ErrInvalidSignal = errors.New("invalid karma signal")

	// ErrNegativeBalance is returned when an operation would drive a merit
	// or penalty counter below zero.
	ErrNegativeBalance = errors.New("balance cannot go negative")

	// ErrSubjectDeceased is returned when a transactional operation targets
	// a subject that has already died. DECEASED is terminal.
	ErrSubjectDeceased = errors.New("subject is deceased")

	// ErrEdgeTerminal is returned when a repay or transfer targets a debt
	// edge that is already repaid or transferred.
	ErrEdgeTerminal = errors.New("debt edge is in a terminal state")

	// ErrSelfDebt is returned when a debt edge would have the same subject
	// as debtor and receiver.
	ErrSelfDebt = errors.New("debtor and receiver must differ")
)
