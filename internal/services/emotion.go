package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
)

// DefaultEmotionTags are created by `manage seed-tags`.
var DefaultEmotionTags = []string{
	"Happy", "Sad", "Excited", "Anxious", "Grateful", "Confused", "Hopeful", "Tired",
}

var tagSentiments = map[string]models.Sentiment{
	"Happy":    models.SentimentPositive,
	"Excited":  models.SentimentPositive,
	"Grateful": models.SentimentPositive,
	"Hopeful":  models.SentimentPositive,
	"Sad":      models.SentimentNegative,
	"Anxious":  models.SentimentNegative,
	"Tired":    models.SentimentNegative,
}

// SentimentFor maps an emotion tag name to a sentiment. Unknown names and
// the empty name are neutral.
func SentimentFor(tagName string) models.Sentiment {
	if s, ok := tagSentiments[tagName]; ok {
		return s
	}
	return models.SentimentNeutral
}

const emotionTagsCacheTTL = 6 * time.Hour

var emotionTagsCacheKey = CacheKey("emotion_tags", "all")

type EmotionService struct {
	db    *sql.DB
	cache *CacheService
}

func NewEmotionService(db *sql.DB, cache *CacheService) *EmotionService {
	return &EmotionService{db: db, cache: cache}
}

// List returns all tags ordered by name.
func (s *EmotionService) List(ctx context.Context) ([]models.EmotionTag, error) {
	var tags []models.EmotionTag
	if found, err := s.cache.Get(ctx, emotionTagsCacheKey, &tags); err == nil && found {
		return tags, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM emotion_tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags = []models.EmotionTag{}
	for rows.Next() {
		var tag models.EmotionTag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, emotionTagsCacheKey, tags, emotionTagsCacheTTL)
	return tags, nil
}

// EnsureDefaults creates any missing default tag and reports how many
// were created.
func (s *EmotionService) EnsureDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, name := range DefaultEmotionTags {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO emotion_tags (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, name)
		if err != nil {
			return created, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}
	if created > 0 {
		_ = s.cache.Delete(ctx, emotionTagsCacheKey)
	}
	return created, nil
}

// tagName resolves an optional tag id. An unknown id is a validation error
// on the emotion_tag field.
func tagName(ctx context.Context, q queryer, tagID uuid.NullUUID) (string, error) {
	if !tagID.Valid {
		return "", nil
	}

	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM emotion_tags WHERE id = $1`, tagID.UUID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.NewFieldError("emotion_tag", "Select a valid emotion.")
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
