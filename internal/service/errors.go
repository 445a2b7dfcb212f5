package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors shared by the services.
var (
	// ErrSubjectNotFound indicates that the subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrEdgeNotFound indicates that the debt edge does not exist.
	ErrEdgeNotFound = errors.New("debt edge not found")

	// ErrSubjectDeceased indicates an operation that requires a living
	// subject was attempted on a deceased one.
	ErrSubjectDeceased = errors.New("subject is deceased")

	// ErrSubjectAlive indicates a rebirth was attempted for a subject
	// that has not died.
	ErrSubjectAlive = errors.New("subject is still alive")

	// ErrThresholdNotCrossed indicates a death was requested for a
	// subject whose in-effect karma is above the death threshold.
	ErrThresholdNotCrossed = errors.New("death threshold not crossed")
)

// ServiceError wraps errors from the services with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "evaluate", "process_death")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. Known sentinel errors pass
// through unwrapped so callers can match them directly.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrSubjectNotFound,
		ErrEdgeNotFound,
		ErrSubjectDeceased,
		ErrSubjectAlive,
		ErrThresholdNotCrossed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
