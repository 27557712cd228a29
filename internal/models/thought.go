package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxThoughtLength is the maximum number of characters in a thought or draft.
const MaxThoughtLength = 280

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// EmotionTag labels how the author felt. Names are unique.
type EmotionTag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Thought is a published post.
type Thought struct {
	ID             uuid.UUID     `json:"id"`
	AuthorID       uuid.NullUUID `json:"author_id"`
	Content        string        `json:"content"`
	EmotionTagID   uuid.NullUUID `json:"emotion_tag_id"`
	Sentiment      Sentiment     `json:"sentiment"`
	IsDailyThought bool          `json:"is_daily_thought"`
	IsPublic       bool          `json:"is_public"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Computed at query time
	AuthorCode     string `json:"author_code"`
	EmotionTagName string `json:"emotion_tag,omitempty"`
	LikesCount     int    `json:"likes_count"`
	Liked          bool   `json:"liked"`
}

// DisplayAuthor returns the anonymous code, or "Anonymous" when the author
// or their profile is gone.
func (t *Thought) DisplayAuthor() string {
	if !t.AuthorID.Valid || t.AuthorCode == "" {
		return AnonymousDisplayName
	}
	return t.AuthorCode
}

// IsOwnedBy reports whether userID authored the thought.
func (t *Thought) IsOwnedBy(userID uuid.UUID) bool {
	return t.AuthorID.Valid && t.AuthorID.UUID == userID
}

// DraftThought is a thought submitted before signup, keyed by session.
type DraftThought struct {
	ID           uuid.UUID     `json:"id"`
	Content      string        `json:"content"`
	EmotionTagID uuid.NullUUID `json:"emotion_tag_id"`
	SessionKey   string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Like is the presence of a (user, thought) pair.
type Like struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ThoughtID uuid.UUID `json:"thought_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	ThoughtID uuid.UUID `json:"thought_id"`
	Liked     bool      `json:"liked"`
	Count     int       `json:"likes_count"`
}
