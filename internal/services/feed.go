package services

import (
	"context"
	"database/sql"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
)

// FeedService lists thoughts according to the viewer's visibility.
type FeedService struct {
	db *sql.DB
}

func NewFeedService(db *sql.DB) *FeedService {
	return &FeedService{db: db}
}

// Feed returns page n of the viewer's feed: their own thoughts plus, when
// showPublic is set, every public thought. Newest first.
func (s *FeedService) Feed(ctx context.Context, viewerID uuid.UUID, showPublic bool, page int) (*models.ThoughtPage, error) {
	page = normalizePage(page)
	return s.list(ctx, page, thoughtSelect+`
		WHERE (t.author_id = $1 OR ($2 AND t.is_public))
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3 OFFSET $4`,
		viewerID, showPublic, models.PageSize+1, models.Offset(page))
}

// ByAuthor returns page n of the author's own thoughts, private included.
func (s *FeedService) ByAuthor(ctx context.Context, authorID uuid.UUID, page int) (*models.ThoughtPage, error) {
	page = normalizePage(page)
	return s.list(ctx, page, thoughtSelect+`
		WHERE t.author_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`,
		authorID, models.PageSize+1, models.Offset(page))
}

// CountByAuthor returns how many thoughts the author has written.
func (s *FeedService) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thoughts WHERE author_id = $1`, authorID).Scan(&count)
	return count, err
}

// list runs a query that fetches one row past the page to learn whether
// a next page exists.
func (s *FeedService) list(ctx context.Context, page int, query string, args ...interface{}) (*models.ThoughtPage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	thoughts := make([]models.Thought, 0, models.PageSize)
	for rows.Next() {
		t, err := scanThought(rows)
		if err != nil {
			return nil, err
		}
		thoughts = append(thoughts, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &models.ThoughtPage{Number: page}
	if len(thoughts) > models.PageSize {
		thoughts = thoughts[:models.PageSize]
		result.HasNext = true
	}
	result.Thoughts = thoughts
	return result, nil
}

func normalizePage(page int) int {
	return models.ClampPage(page)
}
