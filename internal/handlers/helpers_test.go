package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

type stubAccounts struct {
	signup       func(services.SignupInput) (*models.User, *models.UserProfile, error)
	authenticate func(email, password string) (*models.User, error)
	profile      *models.UserProfile
	toggle       func(uuid.UUID) (bool, error)
	confirm      func(token string) error
}

func (s *stubAccounts) Signup(_ context.Context, in services.SignupInput) (*models.User, *models.UserProfile, error) {
	return s.signup(in)
}

func (s *stubAccounts) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	return s.authenticate(email, password)
}

func (s *stubAccounts) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Email: "me@example.com", CreatedAt: today, IsActive: true}, nil
}

func (s *stubAccounts) ProfileOrDefault(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if s.profile != nil {
		return s.profile, nil
	}
	return models.DefaultProfile(userID), nil
}

func (s *stubAccounts) TogglePublicThoughts(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.toggle(userID)
}

func (s *stubAccounts) ConfirmEmail(_ context.Context, token string) error {
	return s.confirm(token)
}

type stubThoughts struct {
	created []services.ThoughtInput
	create  func(uuid.UUID, services.ThoughtInput) (*models.Thought, error)
	own     map[uuid.UUID]*models.Thought
	updated []services.ThoughtInput
	deleted []uuid.UUID
}

func newStubThoughts() *stubThoughts {
	return &stubThoughts{own: map[uuid.UUID]*models.Thought{}}
}

func (s *stubThoughts) Today() time.Time { return today }

func (s *stubThoughts) Create(_ context.Context, authorID uuid.UUID, in services.ThoughtInput) (*models.Thought, error) {
	s.created = append(s.created, in)
	if s.create != nil {
		return s.create(authorID, in)
	}
	return &models.Thought{
		ID:             uuid.New(),
		AuthorID:       uuid.NullUUID{UUID: authorID, Valid: true},
		Content:        in.Content,
		IsPublic:       in.IsPublic,
		IsDailyThought: in.IsDailyThought,
		CreatedAt:      today,
	}, nil
}

func (s *stubThoughts) GetOwn(_ context.Context, id, authorID uuid.UUID) (*models.Thought, error) {
	t, ok := s.own[id]
	if !ok || !t.IsOwnedBy(authorID) {
		return nil, models.NewNotFoundError("Thought", id)
	}
	return t, nil
}

func (s *stubThoughts) Update(ctx context.Context, id, authorID uuid.UUID, in services.ThoughtInput) (*models.Thought, error) {
	t, err := s.GetOwn(ctx, id, authorID)
	if err != nil {
		return nil, err
	}
	s.updated = append(s.updated, in)
	t.Content = in.Content
	return t, nil
}

func (s *stubThoughts) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	if _, err := s.GetOwn(ctx, id, authorID); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	delete(s.own, id)
	return nil
}

type stubFeed struct {
	showPublic []bool
	page       *models.ThoughtPage
}

func (s *stubFeed) Feed(_ context.Context, _ uuid.UUID, showPublic bool, page int) (*models.ThoughtPage, error) {
	s.showPublic = append(s.showPublic, showPublic)
	return s.result(page), nil
}

func (s *stubFeed) ByAuthor(_ context.Context, _ uuid.UUID, page int) (*models.ThoughtPage, error) {
	return s.result(page), nil
}

func (s *stubFeed) CountByAuthor(context.Context, uuid.UUID) (int, error) {
	if s.page == nil {
		return 0, nil
	}
	return len(s.page.Thoughts), nil
}

func (s *stubFeed) result(page int) *models.ThoughtPage {
	if s.page != nil {
		return s.page
	}
	return &models.ThoughtPage{Number: page}
}

type stubLikes struct {
	state *models.LikeState
	err   error
}

func (s *stubLikes) ToggleLike(_ context.Context, _, thoughtID uuid.UUID) (*models.LikeState, error) {
	if s.err != nil {
		return nil, s.err
	}
	st := *s.state
	st.ThoughtID = thoughtID
	return &st, nil
}

type publishCall struct {
	draftID    uuid.UUID
	sessionKey string
	userID     uuid.UUID
}

type stubDrafts struct {
	created    []string
	published  []publishCall
	publishErr error
}

func (s *stubDrafts) Create(_ context.Context, sessionKey string, in services.ThoughtInput) (*models.DraftThought, error) {
	s.created = append(s.created, sessionKey)
	return &models.DraftThought{ID: uuid.New(), Content: in.Content, SessionKey: sessionKey}, nil
}

func (s *stubDrafts) Publish(_ context.Context, draftID uuid.UUID, sessionKey string, userID uuid.UUID) (*models.Thought, error) {
	s.published = append(s.published, publishCall{draftID, sessionKey, userID})
	if s.publishErr != nil {
		return nil, s.publishErr
	}
	return &models.Thought{ID: uuid.New(), AuthorID: uuid.NullUUID{UUID: userID, Valid: true}, IsPublic: true}, nil
}

type stubTags struct{}

func (stubTags) List(context.Context) ([]models.EmotionTag, error) {
	return []models.EmotionTag{{ID: uuid.New(), Name: "Calm"}, {ID: uuid.New(), Name: "Happy"}}, nil
}

type testEnv struct {
	store    *services.SessionStore
	accounts *stubAccounts
	thoughts *stubThoughts
	feed     *stubFeed
	likes    *stubLikes
	drafts   *stubDrafts
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	renderer, err := web.New()
	require.NoError(t, err)

	env := &testEnv{
		store:    services.NewSessionStore(client, "test-secret"),
		accounts: &stubAccounts{},
		thoughts: newStubThoughts(),
		feed:     &stubFeed{},
		likes:    &stubLikes{state: &models.LikeState{Liked: true, Count: 1}},
		drafts:   &stubDrafts{},
	}
	h := New(Deps{
		Sessions: env.store,
		Accounts: env.accounts,
		Thoughts: env.thoughts,
		Feed:     env.feed,
		Likes:    env.likes,
		Drafts:   env.drafts,
		Tags:     stubTags{},
		Renderer: renderer,
		Log:      logger.Nop(),
		BaseURL:  "http://localhost:8080",
	})

	r := chi.NewRouter()
	r.Use(middleware.LoadSession(env.store, logger.Nop()))
	r.Get("/", h.Landing)
	r.Post("/", h.SubmitLanding)
	r.Get("/signup", h.SignupPage)
	r.Post("/signup", h.Signup)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/confirm-email/{token}", h.ConfirmEmail)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/feed", h.Feed)
		r.Get("/my-thoughts", h.MyThoughts)
		r.Get("/profile", h.Profile)
		r.Post("/toggle-public-thoughts", h.TogglePublicThoughts)
		r.Get("/thought/create", h.CreateThoughtPage)
		r.Post("/thought/create", h.CreateThought)
		r.Get("/thought/{id}/update", h.UpdateThoughtPage)
		r.Post("/thought/{id}/update", h.UpdateThought)
		r.Get("/thought/{id}/delete", h.DeleteThoughtPage)
		r.Post("/thought/{id}/delete", h.DeleteThought)
		r.Post("/thought/{id}/like", h.LikeThought)
	})
	env.router = r
	return env
}

// login returns an authenticated session for a fresh user.
func (e *testEnv) login(t *testing.T) *services.Session {
	t.Helper()
	sess, err := e.store.Login(context.Background(), nil, uuid.New())
	require.NoError(t, err)
	return sess
}

type reqOpt func(*http.Request)

func withSession(sess *services.Session) reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token})
	}
}

func htmx(r *http.Request) { r.Header.Set("HX-Request", "true") }

func (e *testEnv) get(path string, opts ...reqOpt) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(path string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// flashes drains the pending flash messages of sess.
func (e *testEnv) flashes(t *testing.T, sess *services.Session) []string {
	t.Helper()
	list, err := e.store.PopFlashes(context.Background(), sess)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.Message)
	}
	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}
