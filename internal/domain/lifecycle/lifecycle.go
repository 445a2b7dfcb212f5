// Package lifecycle holds the pure death-threshold, afterlife-classification
// and inheritance arithmetic. Everything here computes candidate outcomes;
// committing a death or rebirth is the lifecycle service's job and always
// passes through the authorization gate first.
package lifecycle

import (
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// Params are the fixed fractions and thresholds of the lifecycle machine.
type Params struct {
	// DeathThreshold is the in-effect karma level at or below which a
	// death evaluation triggers. Always negative.
	DeathThreshold float64

	// MeritInheritance is the fraction of positive net karma carried into
	// the next life.
	MeritInheritance float64

	// DebtInheritance is the fraction of negative net karma carried into
	// the next life. Larger than MeritInheritance: debt is stickier than
	// merit.
	DebtInheritance float64
}

// DefaultParams returns the standard lifecycle configuration.
func DefaultParams() Params {
	return Params{
		DeathThreshold:   -100,
		MeritInheritance: 0.20,
		DebtInheritance:  0.50,
	}
}

// Afterlife bucket boundaries over net karma. The ranges are fixed and
// non-overlapping; each value of net karma falls in exactly one bucket.
const (
	narakaBelow  = -200.0
	manushyaFrom = 0.0
	svargaFrom   = 200.0
	mokshaFrom   = 1000.0
)

// ShouldDie reports whether the in-effect karma has crossed the death
// threshold.
func (p Params) ShouldDie(inEffect float64) bool {
	return inEffect <= p.DeathThreshold
}

// ClassifyAfterlife maps net karma to its afterlife bucket.
func ClassifyAfterlife(netKarma float64) domain.AfterlifeBucket {
	switch {
	case netKarma < narakaBelow:
		return domain.BucketNaraka
	case netKarma < manushyaFrom:
		return domain.BucketPreta
	case netKarma < svargaFrom:
		return domain.BucketManushya
	case netKarma < mokshaFrom:
		return domain.BucketSvarga
	default:
		return domain.BucketMoksha
	}
}

// Inheritance computes the carry-over seeded into the next life: a small
// fixed fraction of positive net karma, a larger fixed fraction of negative
// net karma.
func (p Params) Inheritance(netKarma float64) float64 {
	if netKarma >= 0 {
		return netKarma * p.MeritInheritance
	}
	return netKarma * p.DebtInheritance
}

// Fixed inheritance thresholds for the starting role of a reborn subject.
const (
	learnerInheritanceFrom   = 50.0
	volunteerInheritanceFrom = 200.0
)

// StartingRole derives the role tier a reborn subject begins at from its
// inherited carry-over. Debt-laden rebirths always start at beginner.
func StartingRole(inheritance float64) domain.Role {
	switch {
	case inheritance >= volunteerInheritanceFrom:
		return domain.RoleVolunteer
	case inheritance >= learnerInheritanceFrom:
		return domain.RoleLearner
	default:
		return domain.RoleBeginner
	}
}

// DeathEvaluation is the computed candidate outcome of a death. It is only
// a proposal until the gate allows the transition.
type DeathEvaluation struct {
	Bucket       domain.AfterlifeBucket `json:"bucket"`
	NetKarma     float64                `json:"net_karma"`
	Inheritance  float64                `json:"inheritance"`
	StartingRole domain.Role            `json:"starting_role"`
}

// EvaluateDeath computes the full candidate death outcome for a balance:
// the afterlife bucket from net karma, the fixed-fraction inheritance, and
// the starting role a subsequent rebirth would seed.
func (p Params) EvaluateDeath(balance *domain.TokenBalance) DeathEvaluation {
	net := balance.NetKarma()
	inheritance := p.Inheritance(net)

	return DeathEvaluation{
		Bucket:       ClassifyAfterlife(net),
		NetKarma:     net,
		Inheritance:  inheritance,
		StartingRole: StartingRole(inheritance),
	}
}
