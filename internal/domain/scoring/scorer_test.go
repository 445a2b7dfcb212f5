package scoring

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

func historyAt(base time.Time, texts ...string) []Record {
	history := make([]Record, len(texts))
	for i, text := range texts {
		history[i] = Record{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Channel:   "chat",
			Text:      text,
		}
	}
	return history
}

func TestScoreDeterminism(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	history := historyAt(base,
		"thank you for the help",
		"happy to teach and share notes",
		"stop the spam please",
	)

	first, err := scorer.Score(history)
	require.NoError(t, err)

	second, err := scorer.Score(history)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical history must yield identical results")
}

func TestScoreClamping(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Enough negative keywords to push far past the lower bound.
	texts := make([]string, 30)
	for i := range texts {
		texts[i] = "abuse harm cheat"
	}

	result, err := scorer.Score(historyAt(base, texts...))
	require.NoError(t, err)
	assert.Equal(t, MinScore, result.Score)
	assert.Equal(t, BandLow, result.Band)

	// And positive ones past the upper bound.
	for i := range texts {
		texts[i] = "teach mentor seva gratitude"
	}
	result, err = scorer.Score(historyAt(base, texts...))
	require.NoError(t, err)
	assert.Equal(t, MaxScore, result.Score)
	assert.Equal(t, BandPositive, result.Band)
}

func TestBandPartition(t *testing.T) {
	t.Parallel()

	// Every representable score maps to exactly one band, with the
	// documented boundaries.
	cases := []struct {
		score float64
		want  Band
	}{
		{-100, BandLow},
		{-30.01, BandLow},
		{-30, BandNeutral},
		{0, BandNeutral},
		{30, BandNeutral},
		{30.01, BandPositive},
		{100, BandPositive},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("score %.2f", tc.score), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, BandOf(tc.score))
		})
	}
}

func TestScoreEmptyHistory(t *testing.T) {
	t.Parallel()

	result, err := NewScorer(nil).Score(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, BandNeutral, result.Band)
}

func TestScoreRejectsMalformedHistory(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Missing timestamp.
	_, err := scorer.Score([]Record{{Text: "help"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// Out-of-order timestamps.
	history := []Record{
		{Timestamp: base.Add(time.Hour), Text: "help"},
		{Timestamp: base, Text: "help"},
	}
	_, err = scorer.Score(history)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestProtectedAttributesZeroWeight(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	plain := []Record{{Timestamp: base, Text: "help"}}
	withProtected := []Record{{
		Timestamp: base,
		Text:      "help",
		Attributes: map[string]string{
			"caste":    "x",
			"gender":   "y",
			"religion": "z",
		},
	}}

	plainResult, err := scorer.Score(plain)
	require.NoError(t, err)

	protectedResult, err := scorer.Score(withProtected)
	require.NoError(t, err)

	// Identical score, but the protected dimensions appear in the trace.
	assert.Equal(t, plainResult.Score, protectedResult.Score)

	var protectedCount int
	for _, contribution := range protectedResult.Trace {
		if contribution.Protected {
			protectedCount++
			assert.Equal(t, 0.0, contribution.Weight)
		}
	}
	assert.Equal(t, 3, protectedCount)
}

func TestKeywordContributesOncePerRecord(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	once, err := scorer.Score(historyAt(base, "help"))
	require.NoError(t, err)

	repeated, err := scorer.Score(historyAt(base, "help help help"))
	require.NoError(t, err)

	assert.Equal(t, once.Score, repeated.Score)
}

func TestCustomStrategy(t *testing.T) {
	t.Parallel()

	strategy := NewKeywordStrategy(map[string]float64{"Vidya": 10})
	scorer := NewScorer(strategy)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	result, err := scorer.Score(historyAt(base, "sharing vidya today"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.Score)
}
