package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/lib/pq"
)

var PostgresDB *sql.DB

// PostgreSQL error codes the services translate into AppErrors.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
)

// ConnectPostgres connects to PostgreSQL and creates the schema.
func ConnectPostgres(ctx context.Context, postgresURI string, log *logger.Logger) error {
	db, err := OpenPostgres(ctx, postgresURI)
	if err != nil {
		return err
	}
	PostgresDB = db
	log.Info("connected to PostgreSQL")

	if err = InitPostgresTables(ctx, PostgresDB); err != nil {
		return err
	}
	log.Info("PostgreSQL tables initialized")
	return nil
}

// OpenPostgres opens a pooled connection and pings it.
func OpenPostgres(ctx context.Context, postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Schema is the ordered list of DDL statements for the Thoughtify tables.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(254) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS emotion_tags (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(50) NOT NULL UNIQUE CHECK (name <> ''),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// One profile per user; the anonymous code is the only public identity
	`CREATE TABLE IF NOT EXISTS user_profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		anonymous_code VARCHAR(4) NOT NULL UNIQUE,
		show_public_thoughts BOOLEAN NOT NULL DEFAULT TRUE,
		last_daily_thought DATE,
		email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirmation_token VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS thoughts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		author_id UUID REFERENCES users(id) ON DELETE CASCADE,
		content VARCHAR(280) NOT NULL,
		emotion_tag_id UUID REFERENCES emotion_tags(id) ON DELETE SET NULL,
		sentiment VARCHAR(10) NOT NULL DEFAULT 'neutral'
			CHECK (sentiment IN ('positive', 'neutral', 'negative')),
		is_daily_thought BOOLEAN NOT NULL DEFAULT FALSE,
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Drafts are keyed by a hash of the session token, never the token itself
	`CREATE TABLE IF NOT EXISTS draft_thoughts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		content VARCHAR(280) NOT NULL,
		emotion_tag_id UUID REFERENCES emotion_tags(id) ON DELETE SET NULL,
		session_key VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS likes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		thought_id UUID NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT likes_user_thought_key UNIQUE (user_id, thought_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email))`,
	`CREATE INDEX IF NOT EXISTS idx_user_profiles_confirmation_token ON user_profiles(confirmation_token)`,
	`CREATE INDEX IF NOT EXISTS idx_thoughts_created_at ON thoughts(created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_thoughts_author_created_at ON thoughts(author_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_thoughts_public_created_at ON thoughts(created_at DESC) WHERE is_public`,
	`CREATE INDEX IF NOT EXISTS idx_draft_thoughts_session_key ON draft_thoughts(session_key)`,
	`CREATE INDEX IF NOT EXISTS idx_draft_thoughts_created_at ON draft_thoughts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_thought_id ON likes(thought_id)`,
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	for _, query := range Schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}

// IsPQCode reports whether err is a PostgreSQL error with the given code.
func IsPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

// ConstraintName returns the violated constraint of a PostgreSQL error.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
