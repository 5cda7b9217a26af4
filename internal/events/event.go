package events

import (
	"encoding/json"
	"time"
)

const (
	TypeDocumentAssigned    = "document.assigned"
	TypeDocumentClaimed     = "document.claimed"
	TypeAnnotationSubmitted = "annotation.submitted"
)

// Event is the payload sent to downstream consumers.
type Event struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId"`
	ActorID    string    `json:"actorId"`
	AssignedTo *string   `json:"assignedTo,omitempty"`
	Status     string    `json:"status,omitempty"`
	TimeSpent  int       `json:"timeSpent,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Version    int       `json:"version"`
}

// New stamps an event of the given type with the current time.
func New(eventType, documentID, actorID string) Event {
	return Event{
		Type:       eventType,
		DocumentID: documentID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Version:    1,
	}
}

// Encode returns the JSON representation of an event.
func Encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// Decode parses a JSON payload into an Event.
func Decode(payload []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}
