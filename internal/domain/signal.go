package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SignalContext tags which part of the platform a karma signal concerns.
type SignalContext string

const (
	ContextAssistant SignalContext = "assistant"
	ContextGame      SignalContext = "game"
	ContextFinance   SignalContext = "finance"
	ContextGurukul   SignalContext = "gurukul"
	ContextInfra     SignalContext = "infra"
	ContextWorkflow  SignalContext = "workflow"
)

// Valid reports whether the context is a known platform context.
func (c SignalContext) Valid() bool {
	switch c {
	case ContextAssistant, ContextGame, ContextFinance, ContextGurukul, ContextInfra, ContextWorkflow:
		return true
	}
	return false
}

// SignalKind classifies the nature of the proposed mutation.
type SignalKind string

const (
	// SignalAllow is advisory: it proposes no ledger mutation.
	SignalAllow SignalKind = "allow"

	// SignalNudge proposes an ordinary balance or reward mutation.
	SignalNudge SignalKind = "nudge"

	// SignalRestrict proposes a penalizing mutation or debt transfer.
	SignalRestrict SignalKind = "restrict"

	// SignalEscalate proposes an irreversible lifecycle transition.
	SignalEscalate SignalKind = "escalate"
)

// Valid reports whether the kind is a known signal kind.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalAllow, SignalNudge, SignalRestrict, SignalEscalate:
		return true
	}
	return false
}

// Mutating reports whether signals of this kind propose a ledger mutation.
// Advisory signals may be resolved locally when the authority is down;
// mutating ones fail closed.
func (k SignalKind) Mutating() bool {
	return k != SignalAllow
}

// KarmaSignal is the canonical authorization request sent to the external
// authority. Every field except Signature is covered by the signature, so
// field values are bit-significant on the wire.
type KarmaSignal struct {
	SubjectID        string        `json:"subject_id"`
	Context          SignalContext `json:"context"`
	Signal           SignalKind    `json:"signal"`
	Severity         float64       `json:"severity"`
	OpaqueReasonCode string        `json:"opaque_reason_code"`
	TTLSeconds       int           `json:"ttl"`
	RequiresCoreAck  bool          `json:"requires_core_ack"`
	Nonce            uuid.UUID     `json:"nonce"`
	Timestamp        time.Time     `json:"timestamp"`
	Signature        string        `json:"signature"`
}

// Validate checks the structural invariants of the signal.
func (s *KarmaSignal) Validate() error {
	if s.SubjectID == "" {
		return fmt.Errorf("%w: subject ID cannot be empty", ErrInvalidSignal)
	}
	if !s.Context.Valid() {
		return fmt.Errorf("%w: unknown context %q", ErrInvalidSignal, s.Context)
	}
	if !s.Signal.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, s.Signal)
	}
	if s.Severity < 0 || s.Severity > 1 {
		return fmt.Errorf("%w: severity %f outside [0,1]", ErrInvalidSignal, s.Severity)
	}
	if s.OpaqueReasonCode == "" {
		return fmt.Errorf("%w: reason code cannot be empty", ErrInvalidSignal)
	}
	if s.TTLSeconds <= 0 {
		return fmt.Errorf("%w: TTL must be positive", ErrInvalidSignal)
	}
	if s.Nonce == uuid.Nil {
		return fmt.Errorf("%w: nonce cannot be empty", ErrInvalidSignal)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp cannot be zero", ErrInvalidSignal)
	}
	return nil
}

// ExpiresAt returns the instant after which a decision for this signal must
// be discarded rather than applied.
func (s *KarmaSignal) ExpiresAt() time.Time {
	return s.Timestamp.Add(time.Duration(s.TTLSeconds) * time.Second)
}

// DecisionOutcome is the terminal state of an authorization request.
type DecisionOutcome string

const (
	OutcomeAllowed DecisionOutcome = "allowed"
	OutcomeDenied  DecisionOutcome = "denied"
	OutcomeTimeout DecisionOutcome = "timeout"
)

// Valid reports whether the outcome is one of the recognized terminal
// states.
func (o DecisionOutcome) Valid() bool {
	switch o {
	case OutcomeAllowed, OutcomeDenied, OutcomeTimeout:
		return true
	}
	return false
}

// AuthorizationDecision records how an authorization request resolved,
// keyed back to the originating signal by nonce.
type AuthorizationDecision struct {
	Outcome      DecisionOutcome `json:"outcome"`
	Nonce        uuid.UUID       `json:"nonce"`
	OpaqueReason string          `json:"opaque_reason"`
	DecidedAt    time.Time       `json:"decided_at"`
}

// Allowed reports whether the decision permits the pending mutation.
func (d *AuthorizationDecision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}
