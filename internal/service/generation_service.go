package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marin55/pixelstory/internal/domain"
	"github.com/marin55/pixelstory/internal/gif"
	"github.com/marin55/pixelstory/internal/repository"
)

// ErrGeneration marks a failure of the external generation collaborators.
// The character record is already flipped to failed when this is returned.
var ErrGeneration = errors.New("character generation failed")

const (
	imageSize           = 64
	rotationParallelism = 3
	generateAttempts    = 3
	rotateAttempts      = 2
	gifFrameDelayCS     = 20 // centiseconds per rotation frame
)

type GenerationService struct {
	charRepo  repository.CharacterRepository
	pixel     PixelArtGenerator
	story     StoryGenerator
	artifacts ArtifactStore
	notifier  Notifier

	timeout    time.Duration
	retryDelay time.Duration

	mu       sync.RWMutex
	progress map[uuid.UUID][2]int // characterID -> {done, total}
}

func NewGenerationService(
	charRepo repository.CharacterRepository,
	pixel PixelArtGenerator,
	story StoryGenerator,
	artifacts ArtifactStore,
	notifier Notifier,
	timeout time.Duration,
) *GenerationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GenerationService{
		charRepo:   charRepo,
		pixel:      pixel,
		story:      story,
		artifacts:  artifacts,
		notifier:   notifier,
		timeout:    timeout,
		retryDelay: time.Second,
		progress:   make(map[uuid.UUID][2]int),
	}
}

// Generate runs the full workflow for one character: create the record in
// the generating state, produce the base frame, rotate the remaining
// directions, write the story, assemble the rotation GIF, then flip the
// record to completed. Any collaborator failure or deadline flips it to
// failed instead and discards partial artifacts.
func (s *GenerationService) Generate(ctx context.Context, userID uuid.UUID, input domain.CharacterInput) (*domain.Character, error) {
	directions, err := domain.DirectionsForCount(input.ImageCount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ch := &domain.Character{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(input.Name),
		Input:     input,
		Status:    domain.StatusGenerating,
		Images:    []domain.CharacterImage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.charRepo.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("creating character: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.setProgress(ch.ID, 0, input.ImageCount)
	defer s.clearProgress(ch.ID)

	start := time.Now()
	if err := s.run(genCtx, ch, directions); err != nil {
		return nil, s.fail(ctx, ch.ID, err)
	}
	ch.GenerationTime = time.Since(start).Seconds()

	completed, err := s.charRepo.CompleteGeneration(ctx, ch)
	if err != nil {
		return nil, s.fail(ctx, ch.ID, fmt.Errorf("persisting result: %w", err))
	}
	if !completed {
		// The sweep already marked this record failed.
		return nil, s.fail(ctx, ch.ID, errors.New("record left the generating state"))
	}

	ch.Status = domain.StatusCompleted
	ch.UpdatedAt = time.Now()
	s.notifier.GenerationCompleted(ch.ID)
	log.Printf("character %s generated in %.2fs (%d images)", ch.ID, ch.GenerationTime, len(ch.Images))
	return ch, nil
}

// run fills in images, story and gif on ch, or returns the first error.
func (s *GenerationService) run(ctx context.Context, ch *domain.Character, directions []string) error {
	dna := buildCharacterDNA(ch.Input)

	base, err := s.generateBase(ctx, dna)
	if err != nil {
		return fmt.Errorf("generating base image: %w", err)
	}

	frames := map[string][]byte{domain.BaseDirection: base}
	done := 1
	s.setProgress(ch.ID, done, ch.Input.ImageCount)
	s.notifier.GenerationProgress(ch.ID, done, ch.Input.ImageCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rotationParallelism)
	var mu sync.Mutex

	for _, dir := range directions {
		if dir == domain.BaseDirection {
			continue
		}
		g.Go(func() error {
			data, err := s.rotate(gctx, base, dir)
			if err != nil {
				return fmt.Errorf("rotating to %s: %w", dir, err)
			}
			mu.Lock()
			frames[dir] = data
			done++
			d := done
			mu.Unlock()
			s.setProgress(ch.ID, d, ch.Input.ImageCount)
			s.notifier.GenerationProgress(ch.ID, d, ch.Input.ImageCount)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	prompt := buildStoryPrompt(ch.Input)
	story, err := s.story.GenerateStory(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generating story: %w", err)
	}
	if strings.TrimSpace(story) == "" {
		return errors.New("story collaborator returned empty text")
	}

	// Persist frames in clockwise order so indexes match rotation playback.
	ordered := make([][]byte, 0, len(directions))
	for i, dir := range directions {
		url, err := s.artifacts.SaveImage(ch.ID, dir, i, frames[dir])
		if err != nil {
			return fmt.Errorf("storing %s image: %w", dir, err)
		}
		ch.Images = append(ch.Images, domain.CharacterImage{URL: url, Direction: dir, Index: i})
		ordered = append(ordered, frames[dir])
	}

	ch.Story = strings.TrimSpace(story)
	ch.StoryPrompt = prompt

	if len(directions) >= 4 {
		data, err := gif.Build(ordered, gifFrameDelayCS)
		if err != nil {
			return fmt.Errorf("assembling gif: %w", err)
		}
		url, err := s.artifacts.SaveGIF(ch.ID, data)
		if err != nil {
			return fmt.Errorf("storing gif: %w", err)
		}
		ch.GIF = &domain.CharacterGIF{
			URL:        url,
			FrameCount: len(ordered),
			DurationMS: len(ordered) * gifFrameDelayCS * 10,
		}
	}

	return nil
}

// Progress reports generation progress for a character currently being
// generated in this process. ok is false once the run reaches a terminal
// state or when another process owns the run.
func (s *GenerationService) Progress(id uuid.UUID) (done, total int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[id]
	return p[0], p[1], ok
}

// SweepStale fails characters stuck in the generating state longer than
// twice the generation deadline and cleans up their artifacts. Run
// periodically; covers runs cut short by a crash.
func (s *GenerationService) SweepStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-2 * s.timeout)
	ids, err := s.charRepo.FailStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.artifacts.Remove(id); err != nil {
			log.Printf("sweep: removing artifacts for %s: %v", id, err)
		}
		s.notifier.GenerationFailed(id, "generation timed out")
	}
	return len(ids), nil
}

func (s *GenerationService) fail(ctx context.Context, id uuid.UUID, cause error) error {
	// The generation context may already be past its deadline.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if _, err := s.charRepo.FailGeneration(failCtx, id); err != nil {
		log.Printf("ERROR marking character %s failed: %v", id, err)
	}
	if err := s.artifacts.Remove(id); err != nil {
		log.Printf("ERROR removing artifacts for %s: %v", id, err)
	}
	s.notifier.GenerationFailed(id, cause.Error())
	return fmt.Errorf("%w: %v", ErrGeneration, cause)
}

func (s *GenerationService) generateBase(ctx context.Context, dna string) ([]byte, error) {
	description := dna + ", side view, facing " + domain.BaseDirection
	var base []byte
	err := s.withRetry(ctx, generateAttempts, func() error {
		var err error
		base, err = s.pixel.Generate(ctx, description, domain.BaseDirection, imageSize)
		return err
	})
	return base, err
}

func (s *GenerationService) rotate(ctx context.Context, base []byte, dir string) ([]byte, error) {
	var data []byte
	err := s.withRetry(ctx, rotateAttempts, func() error {
		var err error
		data, err = s.pixel.Rotate(ctx, base, domain.BaseDirection, dir, imageSize)
		return err
	})
	return data, err
}

func (s *GenerationService) withRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		wait := s.retryDelay * time.Duration(1<<i)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func (s *GenerationService) setProgress(id uuid.UUID, done, total int) {
	s.mu.Lock()
	s.progress[id] = [2]int{done, total}
	s.mu.Unlock()
}

func (s *GenerationService) clearProgress(id uuid.UUID) {
	s.mu.Lock()
	delete(s.progress, id)
	s.mu.Unlock()
}

// buildCharacterDNA composes the fixed identity prompt reused for the base
// image and every rotation, so all frames depict the same character.
func buildCharacterDNA(in domain.CharacterInput) string {
	parts := []string{fmt.Sprintf("pixel art character named %s", strings.TrimSpace(in.Name))}
	if c := strings.TrimSpace(in.CharacterClass); c != "" {
		parts = append(parts, fmt.Sprintf("a %s", c))
	}
	if p := strings.TrimSpace(in.Personality); p != "" {
		parts = append(parts, fmt.Sprintf("personality: %s", p))
	}
	if a := strings.TrimSpace(in.Appearance); a != "" {
		parts = append(parts, fmt.Sprintf("appearance: %s", a))
	}
	if f := strings.TrimSpace(in.SpecialFeatures); f != "" {
		parts = append(parts, fmt.Sprintf("special features: %s", f))
	}
	parts = append(parts, "8-bit pixel art, no background")
	return strings.Join(parts, ", ")
}

func buildStoryPrompt(in domain.CharacterInput) string {
	prompt := fmt.Sprintf("Write a short backstory (about 100 words) for a character named %s", strings.TrimSpace(in.Name))
	if c := strings.TrimSpace(in.CharacterClass); c != "" {
		prompt += fmt.Sprintf(", who is a %s", c)
	}
	if p := strings.TrimSpace(in.Personality); p != "" {
		prompt += fmt.Sprintf(", with personality traits: %s", p)
	}
	if a := strings.TrimSpace(in.Appearance); a != "" {
		prompt += fmt.Sprintf(", and appearance: %s", a)
	}
	if f := strings.TrimSpace(in.SpecialFeatures); f != "" {
		prompt += fmt.Sprintf(", with special features: %s", f)
	}
	return prompt
}
