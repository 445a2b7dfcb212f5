// Package gate implements the asynchronous authorization exchange with the
// external authority. Every irreversible mutation is proposed as a signed
// karma signal and applied only after an allowed decision comes back; the
// gate owns signing, transmission, retries, replay protection and the
// fail-closed behavior when the authority is unreachable.
package gate

import "errors"

var (
	// ErrAuthorityUnavailable is returned when the authority cannot be
	// reached and the proposed mutation must fail closed. The pending
	// mutation is discarded, never queued.
	ErrAuthorityUnavailable = errors.New("authority unavailable")

	// ErrAuthorizationDenied is returned when the authority explicitly
	// denied the proposed mutation.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrAuthorizationTimeout is returned when no decision arrived within
	// the overall deadline, or when a decision arrived after the signal's
	// TTL and had to be discarded.
	ErrAuthorizationTimeout = errors.New("authorization timed out")

	// ErrReplayDetected is returned when a decision arrives for a nonce
	// that was already resolved. Replayed decisions are dropped without
	// touching any pending state.
	ErrReplayDetected = errors.New("replayed decision rejected")

	// ErrUnknownNonce is returned when a decision references no pending
	// signal. This covers both fabricated nonces and decisions that
	// outlived their pending entry.
	ErrUnknownNonce = errors.New("decision references no pending signal")

	// ErrMalformedDecision is returned when the authority answered a signal
	// with a decision that cannot be decoded or fails validation. Unlike a
	// transport failure it is not retried: a corrupt answer fails the
	// proposal closed as denied.
	ErrMalformedDecision = errors.New("malformed decision from authority")

	// ErrInvalidSignature is returned when a signal or decision fails
	// signature verification.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrQueueFull is returned when the outbound exchange queue cannot
	// accept another signal.
	ErrQueueFull = errors.New("exchange queue is full")
)
