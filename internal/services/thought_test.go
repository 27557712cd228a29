package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThoughtService(t *testing.T) (*ThoughtService, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	svc := NewThoughtService(db, time.UTC)
	svc.now = fixedClock
	return svc, mock
}

func author(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}

func TestCleanContent(t *testing.T) {
	content, err := CleanContent("  hello world \n")
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)

	// 280 multi-byte characters are fine; the limit counts characters
	_, err = CleanContent(strings.Repeat("é", 280))
	assert.NoError(t, err)

	_, err = CleanContent(strings.Repeat("a", 281))
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "content", appErr.Field)
	assert.Contains(t, appErr.Message, "at most 280 characters (it has 281)")

	_, err = CleanContent("   ")
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestThoughtService_Create(t *testing.T) {
	svc, mock := newThoughtService(t)
	userID, thoughtID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO thoughts`)).
		WithArgs(author(userID), "hello", uuid.NullUUID{}, "neutral", false, true, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(thoughtID.String()))

	thought, err := svc.Create(context.Background(), userID, ThoughtInput{Content: " hello ", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, thoughtID, thought.ID)
	assert.True(t, thought.IsOwnedBy(userID))
	assert.False(t, thought.IsDailyThought)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtService_CreateWithTagDerivesSentiment(t *testing.T) {
	svc, mock := newThoughtService(t)
	userID, tagID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM emotion_tags WHERE id = $1`)).
		WithArgs(tagID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Grateful"))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO thoughts`)).
		WithArgs(author(userID), "thanks", author(tagID), "positive", false, false, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	thought, err := svc.Create(context.Background(), userID, ThoughtInput{
		Content:      "thanks",
		EmotionTagID: author(tagID),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, thought.Sentiment)
	assert.Equal(t, "Grateful", thought.EmotionTagName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtService_CreateRejectsInvalidInput(t *testing.T) {
	svc, mock := newThoughtService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), ThoughtInput{Content: strings.Repeat("x", 281)})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	tagID := uuid.New()
	mock.ExpectQuery(`SELECT name FROM emotion_tags`).
		WithArgs(tagID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err = svc.Create(ctx, uuid.New(), ThoughtInput{Content: "ok", EmotionTagID: author(tagID)})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "emotion_tag", appErr.Field)

	// Nothing was inserted
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtService_CreateTagDeletedConcurrently(t *testing.T) {
	svc, mock := newThoughtService(t)
	tagID := uuid.New()

	mock.ExpectQuery(`SELECT name FROM emotion_tags`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Sad"))
	mock.ExpectQuery(`INSERT INTO thoughts`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "thoughts_emotion_tag_id_fkey"})

	_, err := svc.Create(context.Background(), uuid.New(), ThoughtInput{Content: "ok", EmotionTagID: author(tagID)})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestThoughtService_DailyThought(t *testing.T) {
	userID := uuid.New()
	today := models.DateOf(fixedNow)

	t.Run("claims today's slot", func(t *testing.T) {
		svc, mock := newThoughtService(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE user_profiles SET last_daily_thought = $2`)).
			WithArgs(userID, today, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO thoughts`)).
			WithArgs(author(userID), "daily", uuid.NullUUID{}, "neutral", true, true, fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
		mock.ExpectCommit()

		thought, err := svc.Create(context.Background(), userID, ThoughtInput{Content: "daily", IsPublic: true, IsDailyThought: true})
		require.NoError(t, err)
		assert.True(t, thought.IsDailyThought)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second daily thought the same day is rejected", func(t *testing.T) {
		svc, mock := newThoughtService(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE user_profiles`).
			WithArgs(userID, today, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id = $1)`)).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), userID, ThoughtInput{Content: "again", IsDailyThought: true})
		assert.True(t, models.HasCode(err, models.CodeDailyLimit))
		assert.Equal(t, "You've already posted your daily thought", err.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile", func(t *testing.T) {
		svc, mock := newThoughtService(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE user_profiles`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), userID, ThoughtInput{Content: "x", IsDailyThought: true})
		assert.ErrorIs(t, err, models.ErrProfileMissing)
	})
}

func TestThoughtService_TodayUsesConfiguredZone(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := NewThoughtService(db, time.FixedZone("JST", 9*3600))
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), svc.Today())
}

func TestThoughtService_GetOwn(t *testing.T) {
	svc, mock := newThoughtService(t)
	userID, thoughtID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.id = $2 AND t.author_id = $1`)).
		WithArgs(userID, thoughtID).
		WillReturnRows(thoughtRows(thoughtRow{id: thoughtID, author: userID, code: "J042", content: "mine", likes: 2}))

	thought, err := svc.GetOwn(context.Background(), thoughtID, userID)
	require.NoError(t, err)
	assert.Equal(t, "J042", thought.DisplayAuthor())
	assert.Equal(t, 2, thought.LikesCount)

	mock.ExpectQuery(`WHERE t.id`).WillReturnRows(thoughtRows())
	_, err = svc.GetOwn(context.Background(), thoughtID, uuid.New())
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestThoughtService_Update(t *testing.T) {
	svc, mock := newThoughtService(t)
	userID, thoughtID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE thoughts SET content = $3`)).
		WithArgs(thoughtID, userID, "edited", uuid.NullUUID{}, "neutral", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE t.id = \$2 AND t.author_id = \$1`).
		WillReturnRows(thoughtRows(thoughtRow{id: thoughtID, author: userID, content: "edited"}))

	thought, err := svc.Update(context.Background(), thoughtID, userID, ThoughtInput{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", thought.Content)
	assert.False(t, thought.IsPublic)

	// Someone else's thought matches no row
	mock.ExpectExec(`UPDATE thoughts`).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = svc.Update(context.Background(), thoughtID, uuid.New(), ThoughtInput{Content: "hijack"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	// Driver errors from RowsAffected are returned as is
	mock.ExpectExec(`UPDATE thoughts`).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unavailable")))
	_, err = svc.Update(context.Background(), thoughtID, userID, ThoughtInput{Content: "edited"})
	assert.EqualError(t, err, "rows affected unavailable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtService_Delete(t *testing.T) {
	svc, mock := newThoughtService(t)
	userID, thoughtID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM thoughts WHERE id = $1 AND author_id = $2`)).
		WithArgs(thoughtID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.Delete(context.Background(), thoughtID, userID))

	other := uuid.New()
	mock.ExpectExec(`DELETE FROM thoughts`).
		WithArgs(thoughtID, other).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.Delete(context.Background(), thoughtID, other)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtService_SeedSamples(t *testing.T) {
	svc, mock := newThoughtService(t)
	userID := uuid.New()
	tags := []models.EmotionTag{
		{ID: uuid.New(), Name: "Happy"},
		{ID: uuid.New(), Name: "Custom"}, // no sample text, skipped
	}

	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`INSERT INTO thoughts`).
			WithArgs(author(userID), sqlmock.AnyArg(), author(tags[0].ID), "positive", false, true, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	}

	created, err := svc.SeedSamples(context.Background(), userID, tags, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
