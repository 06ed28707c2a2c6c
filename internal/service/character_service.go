package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marin55/pixelstory/internal/domain"
	"github.com/marin55/pixelstory/internal/repository"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrNotOwner          = errors.New("only the character owner can perform this action")
	ErrNotCompleted      = errors.New("character generation is not completed")
)

type CharacterService struct {
	charRepo  repository.CharacterRepository
	artifacts ArtifactStore
}

func NewCharacterService(charRepo repository.CharacterRepository, artifacts ArtifactStore) *CharacterService {
	return &CharacterService{
		charRepo:  charRepo,
		artifacts: artifacts,
	}
}

type ListOptions struct {
	Status  string
	OwnerID *uuid.UUID
	Limit   int
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// List returns characters ordered by creation time descending. With no
// explicit status the public gallery view is served: completed characters
// the owner chose to save.
func (s *CharacterService) List(ctx context.Context, opts ListOptions) ([]domain.Character, error) {
	filter := repository.CharacterFilter{
		Status:  opts.Status,
		OwnerID: opts.OwnerID,
		Limit:   opts.Limit,
	}

	if filter.Status == "" {
		filter.Status = domain.StatusCompleted
		filter.SavedOnly = true
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	characters, err := s.charRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if characters == nil {
		characters = []domain.Character{}
	}
	return characters, nil
}

// Get fetches a character by ID. countView bumps the view counter, used by
// the detail endpoint only.
func (s *CharacterService) Get(ctx context.Context, id uuid.UUID, countView bool) (*domain.Character, error) {
	ch, err := s.charRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrCharacterNotFound
	}

	if countView {
		if err := s.charRepo.IncrementViews(ctx, id); err != nil {
			return nil, fmt.Errorf("incrementing views: %w", err)
		}
		ch.ViewCount++
	}

	return ch, nil
}

// Save marks a completed character as part of the gallery. Repeating a save
// is a no-op; a character that is still generating or failed cannot be saved.
func (s *CharacterService) Save(ctx context.Context, id uuid.UUID) (*domain.Character, error) {
	ch, err := s.charRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrCharacterNotFound
	}
	if ch.Status != domain.StatusCompleted {
		return nil, ErrNotCompleted
	}

	saved, err := s.charRepo.MarkSaved(ctx, id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("saving character: %w", err)
	}
	if !saved {
		// Lost a race against a delete.
		return nil, ErrCharacterNotFound
	}

	ch, err = s.charRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrCharacterNotFound
	}
	return ch, nil
}

// Delete removes a character and its stored artifacts. Only the owner may
// delete; the ownership check is repeated inside the conditional SQL delete
// so a stale read cannot bypass it.
func (s *CharacterService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ch, err := s.charRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ch == nil {
		return ErrCharacterNotFound
	}
	if ch.UserID != userID {
		return ErrNotOwner
	}

	deleted, err := s.charRepo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if !deleted {
		return ErrCharacterNotFound
	}

	if err := s.artifacts.Remove(id); err != nil {
		return fmt.Errorf("removing artifacts: %w", err)
	}
	return nil
}
