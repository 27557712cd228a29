package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "secret")
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, SessionDuration, mr.TTL(SessionKeyPrefix+sess.Token))

	loaded, ok, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uuid.Nil, loaded.UserID)
	assert.False(t, loaded.DraftID.Valid)

	_, ok, err = store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_LoginRotatesTokenAndKeepsDraft(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "secret")
	ctx := context.Background()

	anon, err := store.Create(ctx)
	require.NoError(t, err)
	draftID := uuid.New()
	require.NoError(t, store.SetDraft(ctx, anon, draftID))
	require.NoError(t, store.AddFlash(ctx, anon, "info", "stale"))

	userID := uuid.New()
	authed, err := store.Login(ctx, anon, userID)
	require.NoError(t, err)
	assert.NotEqual(t, anon.Token, authed.Token)
	assert.True(t, authed.IsAuthenticated())

	_, ok, err := store.Get(ctx, anon.Token)
	require.NoError(t, err)
	assert.False(t, ok, "pre-login token must stop working")
	assert.False(t, mr.Exists(FlashKeyPrefix+anon.Token))

	loaded, ok, err := store.Get(ctx, authed.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, userID, loaded.UserID)
	assert.Equal(t, draftID, loaded.DraftID.UUID)

	mapped, err := mr.Get(UserSessionKeyPrefix + userID.String())
	require.NoError(t, err)
	assert.Equal(t, authed.Token, mapped)

	// A second login drops the first authenticated session
	again, err := store.Login(ctx, nil, userID)
	require.NoError(t, err)
	_, ok, _ = store.Get(ctx, authed.Token)
	assert.False(t, ok)
	assert.False(t, again.DraftID.Valid)
}

func TestSessionStore_ClearDraftAndDestroy(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewSessionStore(client, "secret")
	ctx := context.Background()

	sess, err := store.Login(ctx, nil, uuid.New())
	require.NoError(t, err)
	require.NoError(t, store.SetDraft(ctx, sess, uuid.New()))
	require.NoError(t, store.ClearDraft(ctx, sess))

	loaded, _, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.False(t, loaded.DraftID.Valid)

	require.NoError(t, store.Destroy(ctx, sess))
	assert.False(t, mr.Exists(SessionKeyPrefix+sess.Token))
	assert.False(t, mr.Exists(UserSessionKeyPrefix+sess.UserID.String()))
	assert.NoError(t, store.Destroy(ctx, nil))
}

func TestSessionStore_Flashes(t *testing.T) {
	_, client := setupRedis(t)
	store := NewSessionStore(client, "secret")
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AddFlash(ctx, sess, "success", "Your thought has been shared!"))
	require.NoError(t, store.AddFlash(ctx, sess, "error", "Oops"))

	flashes, err := store.PopFlashes(ctx, sess)
	require.NoError(t, err)
	require.Len(t, flashes, 2)
	assert.Equal(t, Flash{Level: "success", Message: "Your thought has been shared!"}, flashes[0])
	assert.Equal(t, "error", flashes[1].Level)

	flashes, err = store.PopFlashes(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, flashes)
}

func TestSessionStore_Key(t *testing.T) {
	_, client := setupRedis(t)
	a := NewSessionStore(client, "secret-a")
	b := NewSessionStore(client, "secret-b")

	key := a.Key("token")
	assert.Len(t, key, 40)
	assert.Equal(t, key, a.Key("token"))
	assert.NotEqual(t, key, a.Key("other"))
	assert.NotEqual(t, key, b.Key("token"))
	assert.NotContains(t, key, "token")
}
