package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"

	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
	EventPostDeleted EventType = "post.deleted"
)

// Resource returns the entity part of the event type ("user" or "post").
func (t EventType) Resource() string {
	resource, _, _ := strings.Cut(string(t), ".")
	return resource
}

// Event is a lifecycle notification about a user or a post.
type Event struct {
	EventID       string          `json:"event_id"`
	CorrelationID string          `json:"correlation_id"`
	EventType     EventType       `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent builds an event of type t with data encoded as its payload.
func NewEvent(t EventType, correlationID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		EventType:     t,
		Timestamp:     time.Now().UTC(),
		Data:          raw,
	}, nil
}

// DeletedPayload is the data of a *.deleted event.
type DeletedPayload struct {
	ID int64 `json:"id"`
}
