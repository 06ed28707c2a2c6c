package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marin55/pixelstory/internal/domain"
	"github.com/marin55/pixelstory/internal/repository"
)

const characterColumns = `id, user_id, name, input, status, images, story, story_prompt,
	gif, generation_time, view_count, saved_at, created_at, updated_at`

type CharacterRepo struct {
	pool *pgxpool.Pool
}

func NewCharacterRepo(pool *pgxpool.Pool) *CharacterRepo {
	return &CharacterRepo{pool: pool}
}

func (r *CharacterRepo) Create(ctx context.Context, ch *domain.Character) error {
	query := `
		INSERT INTO characters (id, user_id, name, input, status, images, story, story_prompt,
			gif, generation_time, view_count, saved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		ch.ID, ch.UserID, ch.Name, ch.Input, ch.Status, ch.Images,
		ch.Story, ch.StoryPrompt, ch.GIF, ch.GenerationTime,
		ch.ViewCount, ch.SavedAt, ch.CreatedAt, ch.UpdatedAt,
	)
	return err
}

func (r *CharacterRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Character, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+characterColumns+" FROM characters WHERE id = $1", id)
	ch, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *CharacterRepo) List(ctx context.Context, filter repository.CharacterFilter) ([]domain.Character, error) {
	query := "SELECT " + characterColumns + " FROM characters WHERE 1=1"
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND status = $" + itoa(len(args))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += " AND user_id = $" + itoa(len(args))
	}
	if filter.SavedOnly {
		query += " AND saved_at IS NOT NULL"
	}

	// Served by the (user_id, created_at) / (status, created_at) indexes.
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []domain.Character
	for rows.Next() {
		ch, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, *ch)
	}
	return characters, rows.Err()
}

func (r *CharacterRepo) CompleteGeneration(ctx context.Context, ch *domain.Character) (bool, error) {
	query := `
		UPDATE characters
		SET status = $2, images = $3, story = $4, story_prompt = $5, gif = $6,
			generation_time = $7, updated_at = $8
		WHERE id = $1 AND status = $9`

	tag, err := r.pool.Exec(ctx, query,
		ch.ID, domain.StatusCompleted, ch.Images, ch.Story, ch.StoryPrompt,
		ch.GIF, ch.GenerationTime, time.Now(), domain.StatusGenerating,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CharacterRepo) FailGeneration(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE characters
		SET status = $2, images = '[]'::jsonb, updated_at = $3
		WHERE id = $1 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, id, domain.StatusFailed, time.Now(), domain.StatusGenerating)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CharacterRepo) MarkSaved(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE characters
		SET saved_at = COALESCE(saved_at, $2), updated_at = $3
		WHERE id = $1 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, id, at, time.Now(), domain.StatusCompleted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CharacterRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM characters WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CharacterRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE characters SET view_count = view_count + 1 WHERE id = $1", id)
	return err
}

func (r *CharacterRepo) FailStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE characters
		SET status = $1, images = '[]'::jsonb, updated_at = $2
		WHERE status = $3 AND created_at < $4
		RETURNING id`

	rows, err := r.pool.Query(ctx, query, domain.StatusFailed, time.Now(), domain.StatusGenerating, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCharacter(row pgx.Row) (*domain.Character, error) {
	var ch domain.Character
	err := row.Scan(
		&ch.ID, &ch.UserID, &ch.Name, &ch.Input, &ch.Status, &ch.Images,
		&ch.Story, &ch.StoryPrompt, &ch.GIF, &ch.GenerationTime,
		&ch.ViewCount, &ch.SavedAt, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
