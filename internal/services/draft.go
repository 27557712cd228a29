package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/metrics"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/google/uuid"
)

// DraftMaxAge matches the session lifetime; older drafts are never published.
const DraftMaxAge = SessionDuration

type DraftService struct {
	db  *sql.DB
	log *logger.Logger
	now func() time.Time
}

func NewDraftService(db *sql.DB, log *logger.Logger) *DraftService {
	return &DraftService{db: db, log: log, now: time.Now}
}

// Create stores an anonymous visitor's thought under their session key.
func (s *DraftService) Create(ctx context.Context, sessionKey string, in ThoughtInput) (*models.DraftThought, error) {
	content, err := CleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	if _, err := tagName(ctx, s.db, in.EmotionTagID); err != nil {
		return nil, err
	}

	draft := &models.DraftThought{
		Content:      content,
		EmotionTagID: in.EmotionTagID,
		SessionKey:   sessionKey,
		CreatedAt:    s.now(),
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO draft_thoughts (content, emotion_tag_id, session_key, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, draft.Content, draft.EmotionTagID, draft.SessionKey, draft.CreatedAt).Scan(&draft.ID)
	if err != nil {
		return nil, translateThoughtErr(err)
	}

	metrics.DraftsCreated.Inc()
	return draft, nil
}

// Publish turns the draft into a public thought owned by userID and deletes
// the draft in one transaction. A draft that is gone, expired or belongs to
// another session yields (nil, nil).
func (s *DraftService) Publish(ctx context.Context, draftID uuid.UUID, sessionKey string, userID uuid.UUID) (*models.Thought, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now()
	thought := &models.Thought{
		AuthorID:  uuid.NullUUID{UUID: userID, Valid: true},
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = tx.QueryRowContext(ctx, `
		DELETE FROM draft_thoughts
		WHERE id = $1 AND session_key = $2 AND created_at > $3
		RETURNING content, emotion_tag_id,
			COALESCE((SELECT name FROM emotion_tags WHERE id = draft_thoughts.emotion_tag_id), '')
	`, draftID, sessionKey, now.Add(-DraftMaxAge)).Scan(&thought.Content, &thought.EmotionTagID, &thought.EmotionTagName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	thought.Sentiment = SentimentFor(thought.EmotionTagName)
	if err := insertThought(ctx, tx, thought); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.DraftsConverted.Inc()
	metrics.ThoughtCreated(false)
	return thought, nil
}

// PurgeExpired deletes drafts older than maxAge.
func (s *DraftService) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = DraftMaxAge
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM draft_thoughts WHERE created_at < $1`, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	metrics.DraftsPurged.Add(float64(n))
	return n, nil
}

// StartDraftCleanup purges expired drafts now and then every interval
// until ctx is done.
func (s *DraftService) StartDraftCleanup(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	purge := func() {
		cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		n, err := s.PurgeExpired(cleanupCtx, maxAge)
		if err != nil {
			s.log.Warn("draft cleanup failed", "error", err)
			return
		}
		if n > 0 {
			s.log.Info("purged expired drafts", "count", n)
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		purge()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purge()
			}
		}
	}()
}
