package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type recordingHandler struct {
	received []*OutcomeEvent
	err      error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *OutcomeEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func TestEmitEventDispatchesToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewOutcomeEvent(TypeKarmaCommitted, uuid.New(), map[string]float64{"delta": 1.5})
	if err != nil {
		t.Fatalf("NewOutcomeEvent failed: %v", err)
	}

	if err := emitter.EmitEvent(context.Background(), event); err != nil {
		t.Fatalf("EmitEvent failed: %v", err)
	}

	if len(first.received) != 1 || len(second.received) != 1 {
		t.Errorf("expected each handler to receive the event once, got %d and %d",
			len(first.received), len(second.received))
	}
}

func TestEmitEventContinuesPastFailingHandler(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)
	failure := errors.New("handler broke")
	failing := &recordingHandler{err: failure}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	event, err := NewOutcomeEvent(TypeSubjectDied, uuid.New(), nil)
	if err != nil {
		t.Fatalf("NewOutcomeEvent failed: %v", err)
	}

	if err := emitter.EmitEvent(context.Background(), event); !errors.Is(err, failure) {
		t.Errorf("expected first handler error to surface, got %v", err)
	}
	if len(healthy.received) != 1 {
		t.Error("healthy handler was skipped after a failure")
	}
}

func TestEmitEventWithNoHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)
	event, err := NewOutcomeEvent(TypeDebtRepaid, uuid.New(), nil)
	if err != nil {
		t.Fatalf("NewOutcomeEvent failed: %v", err)
	}

	if err := emitter.EmitEvent(context.Background(), event); err != nil {
		t.Errorf("expected nil error with no handlers, got %v", err)
	}
}

func TestUnmarshalPayload(t *testing.T) {
	t.Parallel()

	type payload struct {
		Bucket string `json:"bucket"`
	}

	event, err := NewOutcomeEvent(TypeSubjectReborn, uuid.New(), payload{Bucket: "svarga"})
	if err != nil {
		t.Fatalf("NewOutcomeEvent failed: %v", err)
	}

	var got payload
	if err := event.UnmarshalPayload(&got); err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}
	if got.Bucket != "svarga" {
		t.Errorf("payload round trip: got %q, want %q", got.Bucket, "svarga")
	}
}
