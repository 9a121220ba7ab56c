package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainEvent(t *testing.T) {
	type completion struct {
		Title string `json:"title"`
	}
	entityID := uuid.New()

	event, err := NewDomainEvent(TaskCompleted, entityID, "alice", completion{Title: "write report"})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TaskCompleted, event.Type)
	assert.Equal(t, entityID, event.EntityID)
	assert.Equal(t, "alice", event.Actor)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded completion
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "write report", decoded.Title)
}

func TestNewDomainEvent_NilPayload(t *testing.T) {
	event, err := NewDomainEvent(UserDeleted, uuid.New(), "", nil)

	require.NoError(t, err)
	assert.Empty(t, event.Payload)
}

func TestNewDomainEvent_UnencodablePayload(t *testing.T) {
	_, err := NewDomainEvent(UserCreated, uuid.New(), "", make(chan int))

	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *DomainEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *DomainEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *DomainEvent
	handler := HandlerFunc(func(ctx context.Context, event *DomainEvent) error {
		got = event
		return errors.New("handled")
	})
	event, err := NewDomainEvent(ProjectDeleted, uuid.New(), "bob", nil)
	require.NoError(t, err)

	err = handler.HandleEvent(context.Background(), event)

	assert.EqualError(t, err, "handled")
	assert.Same(t, event, got)
}
