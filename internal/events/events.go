// Package events decouples the core services from notification delivery.
// Events are fire-and-forget: core operations never block on, or fail
// because of, a notification sink.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the core.
const (
	// EventExamGenerated fires when exam generation succeeds.
	EventExamGenerated = "exam.generated"

	// EventExamCompleted fires when grading completes.
	EventExamCompleted = "exam.completed"

	// EventExamFailed fires when generation or grading fails.
	EventExamFailed = "exam.failed"

	// EventCollectionMilestone fires when a collection crosses a size or
	// mastery milestone.
	EventCollectionMilestone = "collection.milestone"
)

// Event is a notification published to registered sinks. Payload carries
// event-specific data serialized as JSON.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	UserID    uuid.UUID       `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent creates an Event of the given type for a user, serializing the
// payload to JSON.
func NewEvent(eventType string, userID uuid.UUID, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Handler is a component that consumes events, typically a notification
// sink writing user-visible messages.
type Handler interface {
	// HandleEvent processes the given event. Errors are logged by the
	// emitter and never surfaced to the code that emitted the event.
	HandleEvent(ctx context.Context, event *Event) error
}

// Emitter publishes events to all registered handlers without blocking the
// caller.
type Emitter interface {
	Emit(ctx context.Context, event *Event)
}

// ExamEventPayload is the payload for exam lifecycle events.
type ExamEventPayload struct {
	ExamID       uuid.UUID `json:"exam_id"`
	CollectionID uuid.UUID `json:"collection_id"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// MilestonePayload is the payload for collection milestone events.
type MilestonePayload struct {
	CollectionID uuid.UUID `json:"collection_id"`
	ItemCount    int       `json:"item_count"`
}
