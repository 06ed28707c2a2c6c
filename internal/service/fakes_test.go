package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marin55/pixelstory/internal/domain"
	"github.com/marin55/pixelstory/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copy := u
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copy := u
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) delete(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeCharacterRepo struct {
	mu         sync.Mutex
	characters map[uuid.UUID]domain.Character
	createErr  error
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{characters: make(map[uuid.UUID]domain.Character)}
}

func (f *fakeCharacterRepo) Create(ctx context.Context, ch *domain.Character) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.characters[ch.ID] = *ch
	return nil
}

func (f *fakeCharacterRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.characters[id]; ok {
		copy := ch
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeCharacterRepo) List(ctx context.Context, filter repository.CharacterFilter) ([]domain.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Character
	for _, ch := range f.characters {
		if filter.Status != "" && ch.Status != filter.Status {
			continue
		}
		if filter.OwnerID != nil && ch.UserID != *filter.OwnerID {
			continue
		}
		if filter.SavedOnly && ch.SavedAt == nil {
			continue
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeCharacterRepo) CompleteGeneration(ctx context.Context, ch *domain.Character) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.characters[ch.ID]
	if !ok || cur.Status != domain.StatusGenerating {
		return false, nil
	}
	cur.Status = domain.StatusCompleted
	cur.Images = ch.Images
	cur.Story = ch.Story
	cur.StoryPrompt = ch.StoryPrompt
	cur.GIF = ch.GIF
	cur.GenerationTime = ch.GenerationTime
	cur.UpdatedAt = time.Now()
	f.characters[ch.ID] = cur
	return true, nil
}

func (f *fakeCharacterRepo) FailGeneration(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.characters[id]
	if !ok || cur.Status != domain.StatusGenerating {
		return false, nil
	}
	cur.Status = domain.StatusFailed
	cur.Images = []domain.CharacterImage{}
	cur.UpdatedAt = time.Now()
	f.characters[id] = cur
	return true, nil
}

func (f *fakeCharacterRepo) MarkSaved(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.characters[id]
	if !ok || cur.Status != domain.StatusCompleted {
		return false, nil
	}
	if cur.SavedAt == nil {
		cur.SavedAt = &at
	}
	cur.UpdatedAt = time.Now()
	f.characters[id] = cur
	return true, nil
}

func (f *fakeCharacterRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.characters[id]
	if !ok || cur.UserID != userID {
		return false, nil
	}
	delete(f.characters, id)
	return true, nil
}

func (f *fakeCharacterRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.characters[id]; ok {
		cur.ViewCount++
		f.characters[id] = cur
	}
	return nil
}

func (f *fakeCharacterRepo) FailStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, ch := range f.characters {
		if ch.Status == domain.StatusGenerating && ch.CreatedAt.Before(cutoff) {
			ch.Status = domain.StatusFailed
			ch.Images = []domain.CharacterImage{}
			f.characters[id] = ch
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// tinyPNG is a 1x1 transparent PNG, small enough to feed the GIF assembler.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type fakePixel struct {
	mu          sync.Mutex
	generateErr error
	rotateErr   error
	failDirs    map[string]bool // directions whose rotation fails
	block       bool            // block until ctx is done
	rotations   []string
}

func (f *fakePixel) Generate(ctx context.Context, description, direction string, size int) ([]byte, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return tinyPNG, nil
}

func (f *fakePixel) Rotate(ctx context.Context, base []byte, fromDirection, toDirection string, size int) ([]byte, error) {
	if f.rotateErr != nil {
		return nil, f.rotateErr
	}
	f.mu.Lock()
	f.rotations = append(f.rotations, toDirection)
	fail := f.failDirs[toDirection]
	f.mu.Unlock()
	if fail {
		return nil, context.DeadlineExceeded
	}
	return tinyPNG, nil
}

type fakeStory struct {
	mu         sync.Mutex
	text       string
	err        error
	lastPrompt string
}

func (f *fakeStory) GenerateStory(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.lastPrompt = prompt
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeArtifacts struct {
	mu      sync.Mutex
	images  map[uuid.UUID][]string
	gifs    map[uuid.UUID]bool
	removed []uuid.UUID
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{
		images: make(map[uuid.UUID][]string),
		gifs:   make(map[uuid.UUID]bool),
	}
}

func (f *fakeArtifacts) SaveImage(characterID uuid.UUID, direction string, index int, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[characterID] = append(f.images[characterID], direction)
	return "/static/characters/" + characterID.String() + "/" + direction + ".png", nil
}

func (f *fakeArtifacts) SaveGIF(characterID uuid.UUID, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gifs[characterID] = true
	return "/static/characters/" + characterID.String() + "/rotation.gif", nil
}

func (f *fakeArtifacts) Remove(characterID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.images, characterID)
	delete(f.gifs, characterID)
	f.removed = append(f.removed, characterID)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	progress  []int
	completed []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeNotifier) GenerationProgress(characterID uuid.UUID, done, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, done)
}

func (f *fakeNotifier) GenerationCompleted(characterID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, characterID)
}

func (f *fakeNotifier) GenerationFailed(characterID uuid.UUID, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, characterID)
}
