package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AnonymousDisplayName is shown for thoughts whose author has no profile.
const AnonymousDisplayName = "Anonymous"

// User is the login identity. Email doubles as the username.
type User struct {
	ID        uuid.UUID    `json:"id"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `json:"created_at"`
	LastLogin sql.NullTime `json:"-"`
	IsActive  bool         `json:"is_active"`
	IsStaff   bool         `json:"is_staff"`

	// Internal only - never returned in JSON
	PasswordHash string `json:"-"`
}

// UserProfile is the public, anonymous side of a user (1:1 with User)
type UserProfile struct {
	ID                 uuid.UUID    `json:"id"`
	UserID             uuid.UUID    `json:"user_id"`
	AnonymousCode      string       `json:"anonymous_code"`
	ShowPublicThoughts bool         `json:"show_public_thoughts"`
	LastDailyThought   sql.NullTime `json:"-"`
	EmailConfirmed     bool         `json:"email_confirmed"`
	ConfirmationToken  string       `json:"-"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Missing marks a stand-in for a user that has no profile row.
	Missing bool `json:"-"`
}

// DefaultProfile is the stand-in used on read paths when a user has no
// profile row yet.
func DefaultProfile(userID uuid.UUID) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		AnonymousCode:      AnonymousDisplayName,
		ShowPublicThoughts: true,
		Missing:            true,
	}
}

// CanPostDailyThought reports whether the daily thought for today is still
// available. Only the calendar date of today is considered.
func (p *UserProfile) CanPostDailyThought(today time.Time) bool {
	if p == nil || p.Missing {
		return false
	}
	if !p.LastDailyThought.Valid {
		return true
	}
	return DateOf(p.LastDailyThought.Time).Before(DateOf(today))
}

// DateOf truncates t to its calendar date, keeping t's own year/month/day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
