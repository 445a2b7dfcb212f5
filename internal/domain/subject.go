package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a tier in the ordered progression of a subject within the gurukul.
// Roles are strictly ordered; comparisons go through Rank.
type Role string

const (
	RoleBeginner  Role = "beginner"
	RoleLearner   Role = "learner"
	RoleVolunteer Role = "volunteer"
	RoleSeva      Role = "seva"
	RoleGuru      Role = "guru"
)

// roleOrder fixes the progression sequence. Index is the rank.
var roleOrder = []Role{RoleBeginner, RoleLearner, RoleVolunteer, RoleSeva, RoleGuru}

// Roles returns the ordered role progression, lowest tier first.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// Rank returns the position of the role in the progression, or -1 if the
// role is unknown.
func (r Role) Rank() int {
	for i, role := range roleOrder {
		if role == r {
			return i
		}
	}
	return -1
}

// Valid reports whether the role is one of the ordered tiers.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Next returns the next higher role, or the same role if already at the top.
func (r Role) Next() Role {
	rank := r.Rank()
	if rank < 0 || rank == len(roleOrder)-1 {
		return r
	}
	return roleOrder[rank+1]
}

// LifecycleStatus is the liveness state of a subject.
type LifecycleStatus string

const (
	// StatusAlive marks a subject that can still accrue karma.
	StatusAlive LifecycleStatus = "ALIVE"

	// StatusDeceased is terminal. No transition leaves it.
	StatusDeceased LifecycleStatus = "DECEASED"
)

// Subject is an identity participating in the karma economy. Subjects are
// owned by the ledger and mutated only through authorized transactions.
type Subject struct {
	ID           uuid.UUID       `json:"id"`
	Role         Role            `json:"role"`
	RebirthCount int             `json:"rebirth_count"`
	Status       LifecycleStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewSubject creates a new living Subject with the given starting role.
// It generates a new UUID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewSubject(role Role) (*Subject, error) {
	subject := &Subject{
		ID:        uuid.New(),
		Role:      role,
		Status:    StatusAlive,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := subject.Validate(); err != nil {
		return nil, err
	}

	return subject, nil
}

// Validate checks if the Subject has valid data.
func (s *Subject) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("%w: subject ID cannot be empty", ErrInvalidID)
	}

	if !s.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, s.Role)
	}

	if s.Status != StatusAlive && s.Status != StatusDeceased {
		return fmt.Errorf("%w: unknown lifecycle status %q", ErrValidation, s.Status)
	}

	if s.RebirthCount < 0 {
		return fmt.Errorf("%w: rebirth count cannot be negative", ErrValidation)
	}

	return nil
}

// Alive reports whether the subject can still accrue karma.
func (s *Subject) Alive() bool {
	return s.Status == StatusAlive
}
