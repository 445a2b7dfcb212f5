package debtgraph

import "github.com/google/uuid"

// Summary is a subject's view of the debt network.
type Summary struct {
	SubjectID uuid.UUID `json:"subject_id"`

	// Owes and Owed are the subject's outstanding totals on each side.
	Owes float64 `json:"owes"`
	Owed float64 `json:"owed"`

	// NetPosition is Owed minus Owes.
	NetPosition float64 `json:"net_position"`

	// Centrality is the subject's weighted degree.
	Centrality float64 `json:"centrality"`

	// Community is the subject's community label; CommunitySize counts
	// its members.
	Community     uuid.UUID `json:"community"`
	CommunitySize int       `json:"community_size"`

	// NetworkSize counts every subject with at least one active debt.
	NetworkSize int `json:"network_size"`
}

// SummaryFor computes the subject's network summary. A subject with no
// active debts gets a zeroed summary in its own singleton community.
func (g *Graph) SummaryFor(id uuid.UUID) Summary {
	s := Summary{
		SubjectID:   id,
		Owes:        g.Owes(id),
		Owed:        g.Owed(id),
		NetPosition: g.NetPosition(id),
		Centrality:  g.WeightedDegree(id),
		Community:   id,
		NetworkSize: g.Size(),
	}

	labels := g.Communities()
	label, ok := labels[id]
	if !ok {
		s.CommunitySize = 1
		return s
	}

	s.Community = label
	for _, l := range labels {
		if l == label {
			s.CommunitySize++
		}
	}
	return s
}
