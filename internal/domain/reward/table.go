// Package reward implements the reward shaper: a reinforcement-learning
// table mapping (role, action) to a learned value, updated with a
// bounded-memory temporal-difference rule. The shaper only ever computes
// proposals; nothing here touches the ledger.
package reward

import (
	"fmt"
	"sync"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// Action names a learnable behavior, e.g. "complete_lesson" or
// "mentor_peer". The action vocabulary is open but bounded (see
// Params.MaxCells).
type Action string

// Params configures the temporal-difference update.
type Params struct {
	// LearningRate is the TD step size α in (0, 1].
	LearningRate float64

	// DiscountFactor is γ in [0, 1], weighting the estimated value of the
	// candidate next role.
	DiscountFactor float64

	// MaxCells bounds the table's memory: once this many (role, action)
	// cells exist, updates for new cells are rejected.
	MaxCells int
}

// DefaultParams returns the standard TD configuration.
func DefaultParams() Params {
	return Params{
		LearningRate:   0.1,
		DiscountFactor: 0.9,
		MaxCells:       4096,
	}
}

// ErrTableFull is returned when an update would require a new cell beyond
// the configured memory bound.
var ErrTableFull = fmt.Errorf("%w: reward table at capacity", domain.ErrValidation)

type cellKey struct {
	role   domain.Role
	action Action
}

// cell holds one learned value. The per-cell mutex serializes concurrent
// updates to the same (role, action) pair; updates to different cells
// proceed independently.
type cell struct {
	mu    sync.Mutex
	value float64
}

// Table is the learned (role, action) value table. Safe for concurrent use.
type Table struct {
	params Params

	// mu guards the cells map structure only; cell values are guarded by
	// their own mutex.
	mu    sync.RWMutex
	cells map[cellKey]*cell
}

// NewTable creates an empty reward table.
func NewTable(params Params) *Table {
	if params.LearningRate <= 0 || params.LearningRate > 1 {
		params.LearningRate = DefaultParams().LearningRate
	}
	if params.DiscountFactor < 0 || params.DiscountFactor > 1 {
		params.DiscountFactor = DefaultParams().DiscountFactor
	}
	if params.MaxCells <= 0 {
		params.MaxCells = DefaultParams().MaxCells
	}

	return &Table{
		params: params,
		cells:  make(map[cellKey]*cell),
	}
}

// Value returns the learned value for the (role, action) cell, or zero if
// the cell has never been updated.
func (t *Table) Value(role domain.Role, action Action) float64 {
	t.mu.RLock()
	c, ok := t.cells[cellKey{role, action}]
	t.mu.RUnlock()
	if !ok {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Update applies the temporal-difference rule
//
//	Q[s,a] ← Q[s,a] + α·(reward + γ·max(Q[s′,·]) − Q[s,a])
//
// where s is the current role, a the action, and s′ the candidate next
// role. Returns the updated cell value. Updates to the same cell are
// serialized; updates to different cells run concurrently.
func (t *Table) Update(role domain.Role, action Action, reward float64, nextRole domain.Role) (float64, error) {
	c, err := t.getOrCreate(cellKey{role, action})
	if err != nil {
		return 0, err
	}

	// maxNext is read before taking the cell lock so a self-referential
	// update (nextRole == role) cannot deadlock.
	maxNext := t.maxValue(nextRole)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += t.params.LearningRate * (reward + t.params.DiscountFactor*maxNext - c.value)
	return c.value, nil
}

// maxValue returns max(Q[role, ·]) over all known actions for the role, or
// zero when the role has no cells yet.
func (t *Table) maxValue(role domain.Role) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best float64
	var found bool
	for key, c := range t.cells {
		if key.role != role {
			continue
		}
		c.mu.Lock()
		value := c.value
		c.mu.Unlock()
		if !found || value > best {
			best = value
			found = true
		}
	}
	return best
}

func (t *Table) getOrCreate(key cellKey) (*cell, error) {
	t.mu.RLock()
	c, ok := t.cells[key]
	t.mu.RUnlock()
	if ok {
		return c, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.cells[key]; ok {
		return c, nil
	}
	if len(t.cells) >= t.params.MaxCells {
		return nil, ErrTableFull
	}
	c = &cell{}
	t.cells[key] = c
	return c, nil
}

// Len returns the number of learned cells.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cells)
}
