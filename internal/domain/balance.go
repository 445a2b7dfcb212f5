package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity is the three-level classification used for penalty tokens and
// debt edges.
type Severity string

const (
	SeverityMinor  Severity = "minor"
	SeverityMedium Severity = "medium"
	SeverityMaha   Severity = "maha"
)

// Severities returns the fixed severity enumeration, mildest first.
func Severities() []Severity {
	return []Severity{SeverityMinor, SeverityMedium, SeverityMaha}
}

// Valid reports whether the severity is one of the fixed three levels.
func (s Severity) Valid() bool {
	return s == SeverityMinor || s == SeverityMedium || s == SeverityMaha
}

// TokenBalance is the per-subject multi-counter balance record. The merit
// counters are named fields; only the genuinely open-ended penalty classes
// live in a severity-keyed map.
type TokenBalance struct {
	SubjectID uuid.UUID `json:"subject_id"`

	// Merit-type token counters. Never negative.
	Dharma int `json:"dharma"`
	Seva   int `json:"seva"`
	Punya  int `json:"punya"`

	// Penalties counts penalty tokens per severity class. Never negative.
	Penalties map[Severity]int `json:"penalties"`

	// CarryOver is the accumulated lifetime karma preserved across
	// lifecycle boundaries. Signed.
	CarryOver float64 `json:"carry_over"`

	// InEffect is the karma active for the current life. Crossing the
	// death threshold triggers a death evaluation. Signed.
	InEffect float64 `json:"in_effect"`

	// Fixed and Volatile weight how effective corrective guidance is
	// predicted to be. They participate in no balance arithmetic.
	Fixed    float64 `json:"fixed"`
	Volatile float64 `json:"volatile"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewTokenBalance creates a zeroed balance record for the given subject.
func NewTokenBalance(subjectID uuid.UUID) (*TokenBalance, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject ID cannot be empty", ErrInvalidID)
	}

	return &TokenBalance{
		SubjectID: subjectID,
		Penalties: map[Severity]int{
			SeverityMinor:  0,
			SeverityMedium: 0,
			SeverityMaha:   0,
		},
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks the typed invariants of the balance record.
func (b *TokenBalance) Validate() error {
	if b.SubjectID == uuid.Nil {
		return fmt.Errorf("%w: subject ID cannot be empty", ErrInvalidID)
	}

	if b.Dharma < 0 || b.Seva < 0 || b.Punya < 0 {
		return fmt.Errorf("%w: merit counters", ErrNegativeBalance)
	}

	for severity, count := range b.Penalties {
		if !severity.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidSeverity, severity)
		}
		if count < 0 {
			return fmt.Errorf("%w: penalty counter %q", ErrNegativeBalance, severity)
		}
	}

	return nil
}

// MeritScore is the weighted combination of positive balances used for role
// determination. Dharma counts double; penalties subtract with weight
// growing by severity.
func (b *TokenBalance) MeritScore() float64 {
	score := float64(2*b.Dharma + b.Seva + b.Punya)
	score -= float64(b.Penalties[SeverityMinor])
	score -= 2 * float64(b.Penalties[SeverityMedium])
	score -= 5 * float64(b.Penalties[SeverityMaha])
	return score
}

// NetKarma is the lifetime karma position: accumulated carry-over plus what
// is in effect this life.
func (b *TokenBalance) NetKarma() float64 {
	return b.CarryOver + b.InEffect
}

// Touch stamps the balance as modified now.
func (b *TokenBalance) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy, so candidate mutations can be computed without
// touching the stored record.
func (b *TokenBalance) Clone() *TokenBalance {
	dup := *b
	dup.Penalties = make(map[Severity]int, len(b.Penalties))
	for severity, count := range b.Penalties {
		dup.Penalties[severity] = count
	}
	return &dup
}
