package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the entity services after a successful commit.
const (
	UserCreated         = "user.created"
	UserUpdated         = "user.updated"
	UserDeleted         = "user.deleted"
	UserPasswordChanged = "user.password_changed"
	TaskCreated         = "task.created"
	TaskUpdated         = "task.updated"
	TaskCompleted       = "task.completed"
	TaskReopened        = "task.reopened"
	TaskDeleted         = "task.deleted"
	ProjectCreated      = "project.created"
	ProjectUpdated      = "project.updated"
	ProjectDeleted      = "project.deleted"
)

// DomainEvent records a committed change to an entity.
type DomainEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the event type constants, e.g. "user.deleted"
	Type string `json:"type"`

	// EntityID identifies the changed entity
	EntityID uuid.UUID `json:"entity_id"`

	// Actor is the name of the caller that made the change, empty for system changes
	Actor string `json:"actor,omitempty"`

	// Payload carries event-specific detail serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *DomainEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewDomainEvent creates a DomainEvent. A nil payload leaves Payload empty.
func NewDomainEvent(eventType string, entityID uuid.UUID, actor string, payload any) (*DomainEvent, error) {
	event := &DomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		event.Payload = data
	}
	return event, nil
}

// EventHandler processes emitted events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *DomainEvent) error
}

// EventEmitter publishes events to the registered handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *DomainEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *DomainEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *DomainEvent) error {
	return f(ctx, event)
}
