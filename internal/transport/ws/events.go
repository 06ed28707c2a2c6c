package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types - Client → Server
const (
	EventTypeSubscribe   = "character.subscribe"
	EventTypeUnsubscribe = "character.unsubscribe"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeProgress  = "generation.progress"
	EventTypeCompleted = "generation.completed"
	EventTypeFailed    = "generation.failed"
	EventTypePong      = "pong"
	EventTypeError     = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type        string          `json:"type"`
	CharacterID *uuid.UUID      `json:"character_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type CharacterPayload struct {
	CharacterID uuid.UUID `json:"character_id"`
}

// --- Server → Client payloads ---

type ProgressPayload struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

type FailedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, characterID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:        eventType,
		CharacterID: characterID,
		Payload:     data,
		Timestamp:   time.Now().Unix(),
	}, nil
}
