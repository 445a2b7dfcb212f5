package reward

import (
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// Fixed merit thresholds for role tiers. A subject's candidate role is the
// highest tier whose threshold its merit score reaches.
var roleThresholds = []struct {
	role      domain.Role
	threshold float64
}{
	{domain.RoleGuru, 600},
	{domain.RoleSeva, 300},
	{domain.RoleVolunteer, 150},
	{domain.RoleLearner, 50},
	{domain.RoleBeginner, 0},
}

// RoleForMerit returns the role tier for a merit score. Scores below the
// learner threshold, including negative ones, map to beginner.
func RoleForMerit(merit float64) domain.Role {
	for _, entry := range roleThresholds {
		if merit >= entry.threshold {
			return entry.role
		}
	}
	return domain.RoleBeginner
}

// Proposal is a candidate reward mutation. It is computed speculatively and
// applied only after the authorization gate allows it.
type Proposal struct {
	SubjectRole   domain.Role `json:"subject_role"`
	Action        Action      `json:"action"`
	Intensity     float64     `json:"intensity"`
	Value         float64     `json:"value"`
	CandidateRole domain.Role `json:"candidate_role"`
}

// RoleChange reports whether committing the proposal would move the subject
// to a different role tier.
func (p Proposal) RoleChange() bool {
	return p.CandidateRole != p.SubjectRole
}

// Propose looks up the learned value for the subject's (role, action) cell,
// scales it by intensity, and predicts the role transition that would follow
// from the resulting merit score. Nothing is applied; the caller must route
// the proposal through the authorization gate before committing.
func (t *Table) Propose(role domain.Role, action Action, intensity, meritScore float64) Proposal {
	value := t.Value(role, action) * intensity

	return Proposal{
		SubjectRole:   role,
		Action:        action,
		Intensity:     intensity,
		Value:         value,
		CandidateRole: RoleForMerit(meritScore + value),
	}
}

// Learn folds an observed reward back into the table for the proposal's
// cell, using the proposal's candidate role as s′.
func (t *Table) Learn(p Proposal, observedReward float64) (float64, error) {
	return t.Update(p.SubjectRole, p.Action, observedReward, p.CandidateRole)
}
