package reward

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

func TestUpdateTDRule(t *testing.T) {
	t.Parallel()

	table := NewTable(Params{LearningRate: 0.5, DiscountFactor: 0.9, MaxCells: 16})

	// First update: Q = 0 + 0.5*(10 + 0.9*0 - 0) = 5
	value, err := table.Update(domain.RoleLearner, "complete_lesson", 10, domain.RoleVolunteer)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, value, 1e-9)

	// Seed a cell for the next role so max(Q[s',.]) is non-zero.
	_, err = table.Update(domain.RoleVolunteer, "mentor_peer", 20, domain.RoleVolunteer)
	require.NoError(t, err)
	nextMax := table.Value(domain.RoleVolunteer, "mentor_peer")

	// Second update on the original cell: Q = 5 + 0.5*(10 + 0.9*nextMax - 5)
	value, err = table.Update(domain.RoleLearner, "complete_lesson", 10, domain.RoleVolunteer)
	require.NoError(t, err)
	assert.InDelta(t, 5+0.5*(10+0.9*nextMax-5), value, 1e-9)
}

func TestValueUnknownCellIsZero(t *testing.T) {
	t.Parallel()

	table := NewTable(DefaultParams())
	assert.Equal(t, 0.0, table.Value(domain.RoleGuru, "unseen_action"))
}

func TestBoundedMemory(t *testing.T) {
	t.Parallel()

	table := NewTable(Params{LearningRate: 0.1, DiscountFactor: 0.9, MaxCells: 2})

	_, err := table.Update(domain.RoleBeginner, "a", 1, domain.RoleBeginner)
	require.NoError(t, err)
	_, err = table.Update(domain.RoleBeginner, "b", 1, domain.RoleBeginner)
	require.NoError(t, err)

	// Third distinct cell exceeds the bound.
	_, err = table.Update(domain.RoleBeginner, "c", 1, domain.RoleBeginner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableFull))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// Existing cells keep learning.
	_, err = table.Update(domain.RoleBeginner, "a", 1, domain.RoleBeginner)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestConcurrentSameCellUpdates(t *testing.T) {
	t.Parallel()

	// α=1, γ=0 makes each update Q ← reward exactly, so regardless of
	// interleaving the final value must equal the constant reward. A lost
	// or torn update would show up as a different value.
	table := NewTable(Params{LearningRate: 1, DiscountFactor: 0, MaxCells: 16})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := table.Update(domain.RoleSeva, "serve", 7, domain.RoleSeva)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.InDelta(t, 7.0, table.Value(domain.RoleSeva, "serve"), 1e-9)
}

func TestConcurrentDistinctCellUpdates(t *testing.T) {
	t.Parallel()

	table := NewTable(Params{LearningRate: 1, DiscountFactor: 0, MaxCells: 128})
	actions := []Action{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, action := range actions {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(a Action) {
				defer wg.Done()
				_, err := table.Update(domain.RoleLearner, a, 3, domain.RoleLearner)
				assert.NoError(t, err)
			}(action)
		}
	}
	wg.Wait()

	for _, action := range actions {
		assert.InDelta(t, 3.0, table.Value(domain.RoleLearner, action), 1e-9)
	}
}

func TestRoleForMerit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		merit float64
		want  domain.Role
	}{
		{-50, domain.RoleBeginner},
		{0, domain.RoleBeginner},
		{49.9, domain.RoleBeginner},
		{50, domain.RoleLearner},
		{149.9, domain.RoleLearner},
		{150, domain.RoleVolunteer},
		{300, domain.RoleSeva},
		{599.9, domain.RoleSeva},
		{600, domain.RoleGuru},
		{10000, domain.RoleGuru},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RoleForMerit(tc.merit), "merit %.1f", tc.merit)
	}
}

func TestPropose(t *testing.T) {
	t.Parallel()

	table := NewTable(Params{LearningRate: 1, DiscountFactor: 0, MaxCells: 16})

	// Teach the table that completing lessons is worth 60 for learners.
	_, err := table.Update(domain.RoleLearner, "complete_lesson", 60, domain.RoleVolunteer)
	require.NoError(t, err)

	// Merit 100 + 60*1.0 = 160 → volunteer tier.
	proposal := table.Propose(domain.RoleLearner, "complete_lesson", 1.0, 100)
	assert.InDelta(t, 60.0, proposal.Value, 1e-9)
	assert.Equal(t, domain.RoleVolunteer, proposal.CandidateRole)
	assert.True(t, proposal.RoleChange())

	// Half intensity keeps the subject under the volunteer threshold.
	proposal = table.Propose(domain.RoleLearner, "complete_lesson", 0.5, 100)
	assert.InDelta(t, 30.0, proposal.Value, 1e-9)
	assert.Equal(t, domain.RoleLearner, proposal.CandidateRole)
	assert.False(t, proposal.RoleChange())

	// Unknown action proposes a zero-value, no-transition reward.
	proposal = table.Propose(domain.RoleLearner, "unknown", 1.0, 100)
	assert.Equal(t, 0.0, proposal.Value)
	assert.Equal(t, domain.RoleLearner, proposal.CandidateRole)
}
