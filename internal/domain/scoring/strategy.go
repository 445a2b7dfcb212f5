package scoring

import (
	"sort"
	"strings"
	"time"
)

// Record is one entry in a subject's interaction history. Attributes hold
// free-form dimensions of the interaction; protected personal attributes are
// recorded like any other but never influence the score.
type Record struct {
	Timestamp  time.Time         `json:"timestamp"`
	Channel    string            `json:"channel"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Strategy weighs a single interaction record. Implementations must be
// deterministic: identical records always produce identical contributions in
// identical order.
type Strategy interface {
	Weigh(record Record) []Contribution
}

// protectedAttributes are personal dimensions that must contribute exactly
// zero weight while still appearing in the trace.
var protectedAttributes = map[string]bool{
	"gender":      true,
	"caste":       true,
	"religion":    true,
	"age":         true,
	"nationality": true,
	"disability":  true,
}

// KeywordStrategy scores records by keyword occurrences in the text. It is
// the default pluggable scoring function; the keyword table itself is not a
// contract, only the determinism and the zero weight of protected attributes.
type KeywordStrategy struct {
	weights map[string]float64
}

var _ Strategy = (*KeywordStrategy)(nil)

// DefaultKeywordStrategy returns the built-in keyword table.
func DefaultKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{weights: map[string]float64{
		"help":      5,
		"teach":     6,
		"share":     4,
		"gratitude": 5,
		"seva":      6,
		"donate":    4,
		"mentor":    5,
		"insult":    -6,
		"cheat":     -8,
		"harm":      -10,
		"spam":      -4,
		"abuse":     -10,
		"plagiar":   -8,
	}}
}

// NewKeywordStrategy returns a strategy over a custom keyword table.
func NewKeywordStrategy(weights map[string]float64) *KeywordStrategy {
	table := make(map[string]float64, len(weights))
	for keyword, weight := range weights {
		table[strings.ToLower(keyword)] = weight
	}
	return &KeywordStrategy{weights: table}
}

// Weigh implements Strategy. Keywords are matched as substrings of the
// lowercased text; each keyword contributes at most once per record.
// Protected attributes present on the record are emitted with zero weight.
// Contributions are emitted in sorted dimension order for determinism.
func (k *KeywordStrategy) Weigh(record Record) []Contribution {
	var contributions []Contribution

	text := strings.ToLower(record.Text)
	for _, keyword := range sortedKeys(k.weights) {
		if strings.Contains(text, keyword) {
			contributions = append(contributions, Contribution{
				Dimension: "keyword:" + keyword,
				Weight:    k.weights[keyword],
			})
		}
	}

	for _, attribute := range sortedAttributeKeys(record.Attributes) {
		if protectedAttributes[strings.ToLower(attribute)] {
			contributions = append(contributions, Contribution{
				Dimension: "attribute:" + attribute,
				Protected: true,
			})
		}
	}

	return contributions
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedAttributeKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
