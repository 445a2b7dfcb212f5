package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services as their mutations commit.
const (
	// TypeKarmaCommitted fires when an authorized karma delta is applied
	// to a balance.
	TypeKarmaCommitted = "karma.committed"

	// TypeSubjectDied fires when a subject crosses the death threshold
	// and its lifecycle record is written.
	TypeSubjectDied = "lifecycle.subject_died"

	// TypeSubjectReborn fires when a deceased subject's successor is
	// created.
	TypeSubjectReborn = "lifecycle.subject_reborn"

	// TypeDebtRepaid fires when a repayment settles a debt edge in full.
	TypeDebtRepaid = "debt.repaid"

	// TypeDebtTransferred fires when a debt edge is reassigned to a new
	// debtor.
	TypeDebtTransferred = "debt.transferred"
)

// OutcomeEvent represents a committed outcome. Events are emitted only
// after their transaction commits, so a consumer never observes an outcome
// the database does not hold.
type OutcomeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// SubjectID is the subject the outcome concerns
	SubjectID uuid.UUID `json:"subject_id"`

	// Payload contains the outcome-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *OutcomeEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewOutcomeEvent creates a new OutcomeEvent with the specified type,
// subject and payload.
func NewOutcomeEvent(eventType string, subjectID uuid.UUID, payload interface{}) (*OutcomeEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutcomeEvent{
		ID:        uuid.New(),
		Type:      eventType,
		SubjectID: subjectID,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *OutcomeEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *OutcomeEvent) error
}
