package ws

import (
	"log"

	"github.com/google/uuid"
)

// Notifier adapts the Hub to the generation workflow's notifier contract.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) GenerationProgress(characterID uuid.UUID, done, total int) {
	n.push(EventTypeProgress, characterID, ProgressPayload{Done: done, Total: total})
}

func (n *Notifier) GenerationCompleted(characterID uuid.UUID) {
	n.push(EventTypeCompleted, characterID, struct{}{})
}

func (n *Notifier) GenerationFailed(characterID uuid.UUID, reason string) {
	n.push(EventTypeFailed, characterID, FailedPayload{Reason: reason})
}

func (n *Notifier) push(eventType string, characterID uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, &characterID, payload)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToCharacter(characterID, evt)
}
