package web

import (
	"bytes"
	"testing"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func sampleThought(author uuid.UUID) models.Thought {
	return models.Thought{
		ID:             uuid.New(),
		AuthorID:       uuid.NullUUID{UUID: author, Valid: true},
		AuthorCode:     "Calm Otter 42",
		Content:        "the <b>sea</b> was quiet today",
		EmotionTagName: "Calm",
		IsPublic:       true,
		CreatedAt:      time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC),
		LikesCount:     3,
		Liked:          true,
	}
}

func TestEveryPageRenders(t *testing.T) {
	r := newRenderer(t)
	viewer := uuid.New()
	thought := sampleThought(viewer)
	data := &PageData{
		Authenticated: true,
		Viewer:        viewer,
		Form:          NewForm(map[string]string{"is_public": "true"}),
		Tags:          []models.EmotionTag{{ID: uuid.New(), Name: "Calm"}},
		Page:          &models.ThoughtPage{Thoughts: []models.Thought{thought}, Number: 1},
		BasePath:      "/feed",
		Thought:       &thought,
		Profile:       models.DefaultProfile(viewer),
		User:          &models.User{ID: viewer, Email: "a@example.com"},
		Status:        404,
		Message:       "Not found",
	}

	for _, page := range []string{
		"index.html", "feed.html", "signup.html", "login.html", "create_thought.html",
		"update_thought.html", "delete_thought.html", "profile.html", "my_thoughts.html",
		"confirm_email.html", "error.html",
	} {
		var buf bytes.Buffer
		require.NoError(t, r.Page(&buf, page, data), page)
		assert.Contains(t, buf.String(), "<!DOCTYPE html>", page)
	}

	assert.Error(t, r.Page(&bytes.Buffer{}, "missing.html", data))
}

func TestThoughtPartialEscapesAndShowsOwnerActions(t *testing.T) {
	r := newRenderer(t)
	owner := uuid.New()
	thought := sampleThought(owner)

	var buf bytes.Buffer
	require.NoError(t, r.Partial(&buf, "thought", ThoughtItem{Thought: &thought, Own: true}))
	out := buf.String()
	assert.Contains(t, out, "Calm Otter 42")
	assert.Contains(t, out, "&lt;b&gt;sea&lt;/b&gt;")
	assert.Contains(t, out, "/thought/"+thought.ID.String()+"/update")
	assert.Contains(t, out, `class="liked"`)

	buf.Reset()
	require.NoError(t, r.Partial(&buf, "thought", ThoughtItem{Thought: &thought}))
	assert.NotContains(t, buf.String(), "/update")
}

func TestThoughtListPagination(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	page := &models.ThoughtPage{Thoughts: []models.Thought{sampleThought(uuid.New())}, Number: 2, HasNext: true}
	require.NoError(t, r.Partial(&buf, "thought_list", &PageData{Page: page, BasePath: "/my-thoughts"}))
	assert.Contains(t, buf.String(), `hx-get="/my-thoughts?page=3"`)

	buf.Reset()
	require.NoError(t, r.Partial(&buf, "thought_list", &PageData{Page: &models.ThoughtPage{Number: 1}}))
	assert.Contains(t, buf.String(), "No thoughts here yet.")
}

func TestLikeButtonPartial(t *testing.T) {
	r := newRenderer(t)
	id := uuid.New()

	var buf bytes.Buffer
	require.NoError(t, r.Partial(&buf, "like_button", &models.LikeState{ThoughtID: id, Liked: false, Count: 7}))
	assert.Contains(t, buf.String(), "/thought/"+id.String()+"/like")
	assert.Contains(t, buf.String(), ">7<")
	assert.NotContains(t, buf.String(), `class="liked"`)
}

func TestFlashesRender(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	data := &PageData{Form: NewForm(nil), Flashes: []Flash{{Level: "success", Message: "Your thought has been shared!"}}}
	require.NoError(t, r.Page(&buf, "login.html", data))
	assert.Contains(t, buf.String(), `flash-success`)
	assert.Contains(t, buf.String(), "Your thought has been shared!")
}

func TestFormHelpers(t *testing.T) {
	f := NewForm(map[string]string{"is_public": "true"})
	assert.True(t, f.Checked("is_public"))
	assert.True(t, f.Valid())
	f.Errors["content"] = "This field is required."
	assert.False(t, f.Valid())
	assert.Equal(t, "This field is required.", f.ErrorFor("content"))
}
