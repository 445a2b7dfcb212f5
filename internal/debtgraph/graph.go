// Package debtgraph computes analytics over the karmic debt network. The
// network is a directed graph whose nodes are subjects and whose edges are
// active debts weighted by the amount still owed. Graphs are rebuilt from
// the edge set on demand and are immutable afterwards, so every method is
// safe for concurrent readers.
package debtgraph

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// maxPropagationRounds bounds the community detection loop. Label
// propagation on realistic debt networks settles in a handful of rounds;
// the cap keeps pathological inputs from spinning.
const maxPropagationRounds = 32

// link is one directed weighted edge in the adjacency structure.
type link struct {
	to     uuid.UUID
	weight float64
}

// Graph is the in-memory debt network. Only active edges participate;
// repaid and transferred edges are history, not structure.
type Graph struct {
	nodes []uuid.UUID
	out   map[uuid.UUID][]link
	in    map[uuid.UUID][]link
}

// Build constructs a graph from the given edge set, ignoring edges in a
// terminal status.
func Build(edges []*domain.DebtEdge) *Graph {
	g := &Graph{
		out: make(map[uuid.UUID][]link),
		in:  make(map[uuid.UUID][]link),
	}

	seen := make(map[uuid.UUID]struct{})
	addNode := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			g.nodes = append(g.nodes, id)
		}
	}

	for _, e := range edges {
		if e.Status.Terminal() {
			continue
		}
		addNode(e.DebtorID)
		addNode(e.ReceiverID)
		g.out[e.DebtorID] = append(g.out[e.DebtorID], link{to: e.ReceiverID, weight: e.Remaining})
		g.in[e.ReceiverID] = append(g.in[e.ReceiverID], link{to: e.DebtorID, weight: e.Remaining})
	}

	// A stable node order makes every derived computation deterministic.
	sort.Slice(g.nodes, func(i, j int) bool {
		return g.nodes[i].String() < g.nodes[j].String()
	})

	return g
}

// Size returns the number of subjects present in the network.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Owes returns the total amount the subject still owes across its
// outgoing edges.
func (g *Graph) Owes(id uuid.UUID) float64 {
	var total float64
	for _, l := range g.out[id] {
		total += l.weight
	}
	return total
}

// Owed returns the total amount still owed to the subject across its
// incoming edges.
func (g *Graph) Owed(id uuid.UUID) float64 {
	var total float64
	for _, l := range g.in[id] {
		total += l.weight
	}
	return total
}

// NetPosition returns what the subject is owed minus what it owes.
// Positive means the network is in the subject's debt.
func (g *Graph) NetPosition(id uuid.UUID) float64 {
	return g.Owed(id) - g.Owes(id)
}

// WeightedDegree returns the sum of edge weights touching the subject in
// either direction. It is the centrality measure used by the network
// summaries: a subject threaded through many heavy debts scores high
// regardless of which side of them it is on.
func (g *Graph) WeightedDegree(id uuid.UUID) float64 {
	return g.Owes(id) + g.Owed(id)
}

// Centrality returns the weighted degree of every subject in the network.
func (g *Graph) Centrality() map[uuid.UUID]float64 {
	out := make(map[uuid.UUID]float64, len(g.nodes))
	for _, id := range g.nodes {
		out[id] = g.WeightedDegree(id)
	}
	return out
}

// Communities partitions the network into debt communities using label
// propagation over the undirected view of the graph. Each subject adopts
// the label carrying the most edge weight among its neighbors, ties
// breaking toward the smallest label, until no label changes. The result
// maps each subject to its community label; labels are the smallest
// subject ID in the community, so the partition is deterministic for a
// given edge set.
func (g *Graph) Communities() map[uuid.UUID]uuid.UUID {
	labels := make(map[uuid.UUID]uuid.UUID, len(g.nodes))
	for _, id := range g.nodes {
		labels[id] = id
	}

	for round := 0; round < maxPropagationRounds; round++ {
		changed := false

		for _, id := range g.nodes {
			weightByLabel := make(map[uuid.UUID]float64)
			for _, l := range g.out[id] {
				weightByLabel[labels[l.to]] += l.weight
			}
			for _, l := range g.in[id] {
				weightByLabel[labels[l.to]] += l.weight
			}
			if len(weightByLabel) == 0 {
				continue
			}

			best := labels[id]
			bestWeight := weightByLabel[best]
			for label, weight := range weightByLabel {
				if weight > bestWeight ||
					(weight == bestWeight && label.String() < best.String()) {
					best = label
					bestWeight = weight
				}
			}

			if best != labels[id] {
				labels[id] = best
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return labels
}
