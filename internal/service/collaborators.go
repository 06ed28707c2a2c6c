package service

import (
	"context"

	"github.com/google/uuid"
)

// PixelArtGenerator is the external image collaborator. Generate produces the
// base frame from a text description; Rotate derives another viewing angle
// from an existing frame.
type PixelArtGenerator interface {
	Generate(ctx context.Context, description, direction string, size int) ([]byte, error)
	Rotate(ctx context.Context, base []byte, fromDirection, toDirection string, size int) ([]byte, error)
}

// StoryGenerator is the external narrative collaborator.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, prompt string) (string, error)
}

// ArtifactStore persists generated binaries and maps them to public URLs.
type ArtifactStore interface {
	SaveImage(characterID uuid.UUID, direction string, index int, data []byte) (string, error)
	SaveGIF(characterID uuid.UUID, data []byte) (string, error)
	Remove(characterID uuid.UUID) error
}

// Notifier pushes generation lifecycle events to connected clients.
type Notifier interface {
	GenerationProgress(characterID uuid.UUID, done, total int)
	GenerationCompleted(characterID uuid.UUID)
	GenerationFailed(characterID uuid.UUID, reason string)
}

// NopNotifier satisfies Notifier when no realtime transport is wired.
type NopNotifier struct{}

func (NopNotifier) GenerationProgress(uuid.UUID, int, int) {}
func (NopNotifier) GenerationCompleted(uuid.UUID)          {}
func (NopNotifier) GenerationFailed(uuid.UUID, string)     {}
