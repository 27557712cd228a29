package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/thoughtify-backend/internal/database"
	"github.com/AnshRaj112/thoughtify-backend/internal/metrics"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ThoughtInput is the validated-or-not content of a thought form.
type ThoughtInput struct {
	Content        string
	EmotionTagID   uuid.NullUUID
	IsPublic       bool
	IsDailyThought bool
}

// CleanContent trims content and enforces the length limit in characters.
func CleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewFieldError("content", "This field is required.")
	}
	if n := utf8.RuneCountInString(content); n > models.MaxThoughtLength {
		return "", models.NewFieldError("content",
			fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", models.MaxThoughtLength, n))
	}
	return content, nil
}

// thoughtSelect reads a thought with its display fields. $1 is the viewer.
const thoughtSelect = `
	SELECT t.id, t.author_id, COALESCE(p.anonymous_code, ''), t.content,
		t.emotion_tag_id, COALESCE(e.name, ''), t.sentiment,
		t.is_daily_thought, t.is_public, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM likes l WHERE l.thought_id = t.id),
		EXISTS(SELECT 1 FROM likes l WHERE l.thought_id = t.id AND l.user_id = $1)
	FROM thoughts t
	LEFT JOIN user_profiles p ON p.user_id = t.author_id
	LEFT JOIN emotion_tags e ON e.id = t.emotion_tag_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanThought(row rowScanner) (*models.Thought, error) {
	var t models.Thought
	var sentiment string
	err := row.Scan(
		&t.ID, &t.AuthorID, &t.AuthorCode, &t.Content,
		&t.EmotionTagID, &t.EmotionTagName, &sentiment,
		&t.IsDailyThought, &t.IsPublic, &t.CreatedAt, &t.UpdatedAt,
		&t.LikesCount, &t.Liked,
	)
	if err != nil {
		return nil, err
	}
	t.Sentiment = models.Sentiment(sentiment)
	return &t, nil
}

// insertThought writes t and fills in its id.
func insertThought(ctx context.Context, q queryer, t *models.Thought) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO thoughts (author_id, content, emotion_tag_id, sentiment, is_daily_thought, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`, t.AuthorID, t.Content, t.EmotionTagID, string(t.Sentiment), t.IsDailyThought, t.IsPublic, t.CreatedAt).Scan(&t.ID)
}

type ThoughtService struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

func NewThoughtService(db *sql.DB, loc *time.Location) *ThoughtService {
	if loc == nil {
		loc = time.UTC
	}
	return &ThoughtService{db: db, loc: loc, now: time.Now}
}

// Today is the current calendar date in the configured time zone.
func (s *ThoughtService) Today() time.Time {
	return models.DateOf(s.now().In(s.loc))
}

// Create publishes a thought for authorID. A daily thought claims today's
// slot on the author's profile in the same transaction.
func (s *ThoughtService) Create(ctx context.Context, authorID uuid.UUID, in ThoughtInput) (*models.Thought, error) {
	content, err := CleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	name, err := tagName(ctx, s.db, in.EmotionTagID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	thought := &models.Thought{
		AuthorID:       uuid.NullUUID{UUID: authorID, Valid: true},
		Content:        content,
		EmotionTagID:   in.EmotionTagID,
		EmotionTagName: name,
		Sentiment:      SentimentFor(name),
		IsDailyThought: in.IsDailyThought,
		IsPublic:       in.IsPublic,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if !in.IsDailyThought {
		if err := insertThought(ctx, s.db, thought); err != nil {
			return nil, translateThoughtErr(err)
		}
		metrics.ThoughtCreated(false)
		return thought, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := claimDailySlot(ctx, tx, authorID, s.Today(), now); err != nil {
		return nil, err
	}
	if err := insertThought(ctx, tx, thought); err != nil {
		return nil, translateThoughtErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.ThoughtCreated(true)
	return thought, nil
}

// claimDailySlot sets last_daily_thought to today unless it already is.
func claimDailySlot(ctx context.Context, tx *sql.Tx, userID uuid.UUID, today, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE user_profiles
		SET last_daily_thought = $2, updated_at = $3
		WHERE user_id = $1 AND (last_daily_thought IS NULL OR last_daily_thought < $2)
	`, userID, today, now)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return models.ErrProfileMissing
	}
	metrics.DailyGateRejections.Inc()
	return models.ErrDailyThoughtTaken
}

// Get returns a thought visible to viewerID: public or authored by them.
func (s *ThoughtService) Get(ctx context.Context, id, viewerID uuid.UUID) (*models.Thought, error) {
	row := s.db.QueryRowContext(ctx, thoughtSelect+`
		WHERE t.id = $2 AND (t.is_public OR t.author_id = $1)`, viewerID, id)
	t, err := scanThought(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("Thought", id)
	}
	return t, err
}

// GetOwn returns a thought only if authorID wrote it.
func (s *ThoughtService) GetOwn(ctx context.Context, id, authorID uuid.UUID) (*models.Thought, error) {
	row := s.db.QueryRowContext(ctx, thoughtSelect+`
		WHERE t.id = $2 AND t.author_id = $1`, authorID, id)
	t, err := scanThought(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("Thought", id)
	}
	return t, err
}

// Update edits content, tag and visibility of the author's own thought.
func (s *ThoughtService) Update(ctx context.Context, id, authorID uuid.UUID, in ThoughtInput) (*models.Thought, error) {
	content, err := CleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	name, err := tagName(ctx, s.db, in.EmotionTagID)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE thoughts
		SET content = $3, emotion_tag_id = $4, sentiment = $5, is_public = $6, updated_at = $7
		WHERE id = $1 AND author_id = $2
	`, id, authorID, content, in.EmotionTagID, string(SentimentFor(name)), in.IsPublic, s.now())
	if err != nil {
		return nil, translateThoughtErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.NewNotFoundError("Thought", id)
	}
	return s.GetOwn(ctx, id, authorID)
}

// Delete removes the author's own thought.
func (s *ThoughtService) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM thoughts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("Thought", id)
	}
	return nil
}

// translateThoughtErr maps a tag deleted between lookup and write onto the
// form field.
func translateThoughtErr(err error) error {
	if database.IsPQCode(err, database.ForeignKeyViolation) &&
		strings.Contains(database.ConstraintName(err), "emotion_tag") {
		return models.NewFieldError("emotion_tag", "Select a valid emotion.")
	}
	return err
}
