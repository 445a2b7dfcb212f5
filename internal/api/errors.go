package api

import (
	"errors"
	"net/http"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/service"
	"github.com/yashikart/gurukul-backend--sub000/internal/service/auth"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Authority gate outcomes
	case errors.Is(err, gate.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, gate.ErrAuthorizationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, gate.ErrAuthorityUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gate.ErrReplayDetected),
		errors.Is(err, gate.ErrUnknownNonce):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrEdgeNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Lifecycle state conflicts
	case errors.Is(err, service.ErrSubjectDeceased),
		errors.Is(err, service.ErrSubjectAlive),
		errors.Is(err, domain.ErrEdgeTerminal):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrThresholdNotCrossed),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSelfDebt),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidSeverity),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, gate.ErrAuthorizationDenied):
		return "Authority denied the operation"
	case errors.Is(err, gate.ErrAuthorizationTimeout):
		return "Authority decision timed out"
	case errors.Is(err, gate.ErrAuthorityUnavailable):
		return "Authority unavailable"
	case errors.Is(err, gate.ErrReplayDetected):
		return "Decision already processed"
	case errors.Is(err, gate.ErrUnknownNonce):
		return "Unknown decision nonce"

	case errors.Is(err, service.ErrSubjectNotFound):
		return "Subject not found"
	case errors.Is(err, service.ErrEdgeNotFound):
		return "Debt edge not found"
	case errors.Is(err, service.ErrSubjectDeceased):
		return "Subject is deceased"
	case errors.Is(err, service.ErrSubjectAlive):
		return "Subject is still alive"
	case errors.Is(err, service.ErrThresholdNotCrossed):
		return "Death threshold not crossed"
	case errors.Is(err, domain.ErrEdgeTerminal):
		return "Debt edge is already settled"
	case errors.Is(err, domain.ErrSelfDebt):
		return "Debtor and receiver must differ"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
