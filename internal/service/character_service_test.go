package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marin55/pixelstory/internal/domain"
)

func seedCharacter(t *testing.T, repo *fakeCharacterRepo, status string, saved bool, age time.Duration) *domain.Character {
	t.Helper()
	now := time.Now().Add(-age)
	ch := &domain.Character{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "seed",
		Status:    status,
		Images:    []domain.CharacterImage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if saved {
		ch.SavedAt = &now
	}
	if err := repo.Create(context.Background(), ch); err != nil {
		t.Fatalf("seeding character: %v", err)
	}
	return ch
}

func TestListDefaultsToSavedCompleted(t *testing.T) {
	repo := newFakeCharacterRepo()
	svc := NewCharacterService(repo, newFakeArtifacts())

	seedCharacter(t, repo, domain.StatusCompleted, true, time.Hour)
	seedCharacter(t, repo, domain.StatusCompleted, false, time.Hour) // generated, never saved
	seedCharacter(t, repo, domain.StatusGenerating, false, time.Hour)
	seedCharacter(t, repo, domain.StatusFailed, false, time.Hour)

	out, err := svc.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("default list returned %d characters, want 1", len(out))
	}
	if out[0].Status != domain.StatusCompleted || !out[0].Saved() {
		t.Errorf("default list leaked a non-gallery record: status=%q saved=%v", out[0].Status, out[0].Saved())
	}
}

func TestListStatusFilterAndLimit(t *testing.T) {
	repo := newFakeCharacterRepo()
	svc := NewCharacterService(repo, newFakeArtifacts())

	for i := 0; i < 5; i++ {
		seedCharacter(t, repo, domain.StatusCompleted, true, time.Duration(i)*time.Minute)
	}
	seedCharacter(t, repo, domain.StatusFailed, false, time.Hour)

	out, err := svc.List(context.Background(), ListOptions{Status: domain.StatusCompleted, Limit: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d characters, want 3", len(out))
	}
	for i, ch := range out {
		if ch.Status != domain.StatusCompleted {
			t.Errorf("result %d has status %q", i, ch.Status)
		}
		if i > 0 && out[i-1].CreatedAt.Before(ch.CreatedAt) {
			t.Error("results not ordered by recency")
		}
	}
}

func TestGetCountsViews(t *testing.T) {
	repo := newFakeCharacterRepo()
	svc := NewCharacterService(repo, newFakeArtifacts())
	ch := seedCharacter(t, repo, domain.StatusCompleted, true, 0)

	got, err := svc.Get(context.Background(), ch.ID, true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ViewCount != 1 {
		t.Errorf("view count = %d, want 1", got.ViewCount)
	}

	if _, err := svc.Get(context.Background(), uuid.New(), false); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("missing character: error = %v, want ErrCharacterNotFound", err)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	repo := newFakeCharacterRepo()
	svc := NewCharacterService(repo, newFakeArtifacts())
	ch := seedCharacter(t, repo, domain.StatusCompleted, false, 0)

	first, err := svc.Save(context.Background(), ch.ID)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if !first.Saved() {
		t.Fatal("character not marked saved")
	}

	second, err := svc.Save(context.Background(), ch.ID)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if !second.SavedAt.Equal(*first.SavedAt) {
		t.Error("repeated save changed saved_at")
	}
}

func TestSaveRejectsNonCompleted(t *testing.T) {
	repo := newFakeCharacterRepo()
	svc := NewCharacterService(repo, newFakeArtifacts())

	generating := seedCharacter(t, repo, domain.StatusGenerating, false, 0)
	failed := seedCharacter(t, repo, domain.StatusFailed, false, 0)

	if _, err := svc.Save(context.Background(), generating.ID); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("generating: error = %v, want ErrNotCompleted", err)
	}
	if _, err := svc.Save(context.Background(), failed.ID); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("failed: error = %v, want ErrNotCompleted", err)
	}
	if _, err := svc.Save(context.Background(), uuid.New()); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("missing: error = %v, want ErrCharacterNotFound", err)
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	repo := newFakeCharacterRepo()
	artifacts := newFakeArtifacts()
	svc := NewCharacterService(repo, artifacts)
	ch := seedCharacter(t, repo, domain.StatusCompleted, true, 0)

	if err := svc.Delete(context.Background(), ch.ID, uuid.New()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("stranger delete: error = %v, want ErrNotOwner", err)
	}

	// Record untouched by the rejected delete.
	still, err := svc.Get(context.Background(), ch.ID, false)
	if err != nil {
		t.Fatalf("Get after rejected delete: %v", err)
	}
	if still.Status != domain.StatusCompleted || !still.Saved() {
		t.Error("rejected delete modified the record")
	}

	if err := svc.Delete(context.Background(), ch.ID, ch.UserID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), ch.ID, false); !errors.Is(err, ErrCharacterNotFound) {
		t.Error("record survived owner delete")
	}
	if len(artifacts.removed) != 1 {
		t.Errorf("artifact removals = %d, want 1", len(artifacts.removed))
	}

	if err := svc.Delete(context.Background(), ch.ID, ch.UserID); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("double delete: error = %v, want ErrCharacterNotFound", err)
	}
}
