package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Character generation statuses. A character starts at StatusGenerating and
// moves to exactly one of the terminal states; it never leaves a terminal state.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ClockwiseDirections is the full rotation order, starting at north. Generated
// image sets are always sorted in this order so the frontend can play them as
// a smooth rotation.
var ClockwiseDirections = []string{
	"north", "north-east", "east", "south-east",
	"south", "south-west", "west", "north-west",
}

// BaseDirection is the direction the base image is generated in. The original
// art pipeline produces the front view first and rotates everything else from it.
const BaseDirection = "south"

// DirectionsForCount returns the directions generated for a requested image
// count, in clockwise order. Only 1, 4 and 8 are valid counts.
func DirectionsForCount(count int) ([]string, error) {
	switch count {
	case 1:
		return []string{BaseDirection}, nil
	case 4:
		return []string{"north", "east", "south", "west"}, nil
	case 8:
		return append([]string(nil), ClockwiseDirections...), nil
	default:
		return nil, fmt.Errorf("invalid image count %d: must be 1, 4 or 8", count)
	}
}

// ValidDirection reports whether dir is one of the eight compass tags.
func ValidDirection(dir string) bool {
	for _, d := range ClockwiseDirections {
		if d == dir {
			return true
		}
	}
	return false
}

// CharacterInput holds the user-supplied generation parameters. They are kept
// verbatim on the record so a character can be regenerated later.
type CharacterInput struct {
	Name            string `json:"name"`
	CharacterClass  string `json:"characterClass"`
	Personality     string `json:"personality"`
	Appearance      string `json:"appearance"`
	SpecialFeatures string `json:"specialFeatures,omitempty"`
	ImageCount      int    `json:"imageCount"`
}

// CharacterImage is one generated frame. Index follows clockwise rotation
// order; Direction is unique within a character.
type CharacterImage struct {
	URL       string `json:"url"`
	Direction string `json:"direction"`
	Index     int    `json:"index"`
}

// CharacterGIF describes the assembled rotation animation. Only present for
// image counts of 4 and 8.
type CharacterGIF struct {
	URL        string `json:"url"`
	FrameCount int    `json:"frame_count"`
	DurationMS int    `json:"duration_ms"`
}

type Character struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	Name           string           `json:"name"`
	Input          CharacterInput   `json:"input"`
	Status         string           `json:"status"`
	Images         []CharacterImage `json:"images"`
	Story          string           `json:"story"`
	StoryPrompt    string           `json:"-"`
	GIF            *CharacterGIF    `json:"gif,omitempty"`
	GenerationTime float64          `json:"generation_time"`
	ViewCount      int              `json:"view_count"`
	SavedAt        *time.Time       `json:"saved_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Terminal reports whether the character reached a final generation state.
func (c *Character) Terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusFailed
}

// Saved reports whether the character was saved to the gallery.
func (c *Character) Saved() bool {
	return c.SavedAt != nil
}

// ImageByDirection returns the image tagged with dir, or nil.
func (c *Character) ImageByDirection(dir string) *CharacterImage {
	for i := range c.Images {
		if c.Images[i].Direction == dir {
			return &c.Images[i]
		}
	}
	return nil
}
