package services

import (
	"context"
	"database/sql"

	"github.com/AnshRaj112/thoughtify-backend/internal/database"
	"github.com/AnshRaj112/thoughtify-backend/internal/metrics"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
)

type LikeService struct {
	db *sql.DB
}

func NewLikeService(db *sql.DB) *LikeService {
	return &LikeService{db: db}
}

// ToggleLike adds the user's like if absent and removes it otherwise. Only
// thoughts the user can see (public or their own) can be liked.
func (s *LikeService) ToggleLike(ctx context.Context, userID, thoughtID uuid.UUID) (*models.LikeState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var visible bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM thoughts WHERE id = $1 AND (is_public OR author_id = $2))
	`, thoughtID, userID).Scan(&visible)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, models.NewNotFoundError("Thought", thoughtID)
	}

	state := &models.LikeState{ThoughtID: thoughtID}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO likes (user_id, thought_id) VALUES ($1, $2)
		ON CONFLICT (user_id, thought_id) DO NOTHING
	`, userID, thoughtID)
	if err != nil {
		if database.IsPQCode(err, database.ForeignKeyViolation) {
			return nil, models.NewNotFoundError("Thought", thoughtID)
		}
		return nil, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if inserted == 1 {
		state.Liked = true
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND thought_id = $2`, userID, thoughtID); err != nil {
			return nil, err
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE thought_id = $1`, thoughtID).Scan(&state.Count); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.LikeToggled(state.Liked)
	return state, nil
}
