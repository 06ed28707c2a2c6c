package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marin55/pixelstory/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CharacterFilter narrows List queries. Zero values mean "no constraint";
// results are always ordered by creation time descending.
type CharacterFilter struct {
	Status    string
	OwnerID   *uuid.UUID
	SavedOnly bool
	Limit     int
}

type CharacterRepository interface {
	Create(ctx context.Context, ch *domain.Character) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Character, error)
	List(ctx context.Context, filter CharacterFilter) ([]domain.Character, error)

	// CompleteGeneration writes the generated artifacts and flips the record
	// to completed. The update is conditional on status=generating so a
	// record already swept to failed is never resurrected; it reports
	// whether the transition happened.
	CompleteGeneration(ctx context.Context, ch *domain.Character) (bool, error)

	// FailGeneration flips a generating record to failed. Conditional on
	// status=generating; terminal records are left untouched.
	FailGeneration(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkSaved records gallery membership. Idempotent: an already-saved
	// character keeps its original saved_at. Conditional on
	// status=completed so a save can never race a delete into a half state.
	MarkSaved(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// Delete removes the record only when owned by userID.
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)

	IncrementViews(ctx context.Context, id uuid.UUID) error

	// FailStale sweeps records stuck in generating since before cutoff and
	// returns their IDs so artifacts can be cleaned up.
	FailStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
