package services

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

var thoughtColumns = []string{
	"id", "author_id", "anonymous_code", "content",
	"emotion_tag_id", "name", "sentiment",
	"is_daily_thought", "is_public", "created_at", "updated_at",
	"likes", "liked",
}

type thoughtRow struct {
	id      uuid.UUID
	author  uuid.UUID // uuid.Nil for an orphaned thought
	code    string
	content string
	tagName string
	public  bool
	likes   int64
	liked   bool
	created time.Time
}

func thoughtRows(rows ...thoughtRow) *sqlmock.Rows {
	r := sqlmock.NewRows(thoughtColumns)
	for _, row := range rows {
		var author driver.Value
		if row.author != uuid.Nil {
			author = row.author.String()
		}
		created := row.created
		if created.IsZero() {
			created = fixedNow
		}
		r.AddRow(row.id.String(), author, row.code, row.content,
			nil, row.tagName, string(SentimentFor(row.tagName)),
			false, row.public, created, created,
			row.likes, row.liked)
	}
	return r
}
