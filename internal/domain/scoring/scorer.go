// Package scoring implements the behavior scorer: a deterministic, pure
// mapping from an ordered interaction history to a bounded karma score and
// band. Downstream authorization and reward computation assume
// reproducibility, so identical history must always yield identical output.
package scoring

import (
	"fmt"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// Score bounds. Scorer output is always clamped to this range.
const (
	MinScore = -100.0
	MaxScore = 100.0
)

// Band thresholds. The three bands partition [MinScore, MaxScore] with no
// overlaps and no gaps: (-100, -30) low, [-30, 30] neutral, (30, 100] positive.
const (
	lowUpperBound     = -30.0
	neutralUpperBound = 30.0
)

// Band is the coarse classification of a karma score.
type Band string

const (
	BandLow      Band = "low"
	BandNeutral  Band = "neutral"
	BandPositive Band = "positive"
)

// Result is the scorer's output: the clamped score, its band, and a trace of
// every weighed dimension, including protected ones that contributed zero.
type Result struct {
	Score float64        `json:"score"`
	Band  Band           `json:"band"`
	Trace []Contribution `json:"trace"`
}

// Contribution records how one dimension of one interaction record was
// weighed. Protected dimensions always carry weight zero but remain in the
// trace for auditability.
type Contribution struct {
	RecordIndex int     `json:"record_index"`
	Dimension   string  `json:"dimension"`
	Weight      float64 `json:"weight"`
	Protected   bool    `json:"protected"`
}

// Scorer maps interaction histories to karma scores using a pluggable
// weighting strategy. The scorer itself carries no mutable state.
type Scorer struct {
	strategy Strategy
}

// NewScorer creates a Scorer with the given strategy. A nil strategy falls
// back to the default keyword strategy.
func NewScorer(strategy Strategy) *Scorer {
	if strategy == nil {
		strategy = DefaultKeywordStrategy()
	}
	return &Scorer{strategy: strategy}
}

// Score computes the karma score and band for an ordered interaction
// history. It is a pure function of its input: no clock, no randomness.
// Returns a validation error if the history is not a well-formed ordered
// sequence of records.
func (s *Scorer) Score(history []Record) (Result, error) {
	if err := validateHistory(history); err != nil {
		return Result{}, err
	}

	var total float64
	var trace []Contribution

	for i, record := range history {
		for _, contribution := range s.strategy.Weigh(record) {
			contribution.RecordIndex = i
			if contribution.Protected {
				// Recorded for traceability, weighted at exactly zero.
				contribution.Weight = 0
			}
			total += contribution.Weight
			trace = append(trace, contribution)
		}
	}

	score := clamp(total)
	return Result{
		Score: score,
		Band:  BandOf(score),
		Trace: trace,
	}, nil
}

// BandOf classifies a score into its band. Scores are expected to already be
// clamped; out-of-range values classify as if clamped.
func BandOf(score float64) Band {
	switch {
	case score < lowUpperBound:
		return BandLow
	case score <= neutralUpperBound:
		return BandNeutral
	default:
		return BandPositive
	}
}

// validateHistory checks that the history is an ordered sequence of
// well-formed records: every record carries a timestamp, and timestamps never
// go backwards.
func validateHistory(history []Record) error {
	for i, record := range history {
		if record.Timestamp.IsZero() {
			return fmt.Errorf("%w: record %d has no timestamp", domain.ErrValidation, i)
		}
		if i > 0 && record.Timestamp.Before(history[i-1].Timestamp) {
			return fmt.Errorf("%w: record %d is out of order", domain.ErrValidation, i)
		}
	}
	return nil
}

func clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
