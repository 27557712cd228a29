package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/google/uuid"
)

// Flash levels.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// SessionManager is the slice of the session store the handlers use.
type SessionManager interface {
	Key(token string) string
	Create(ctx context.Context) (*services.Session, error)
	Login(ctx context.Context, current *services.Session, userID uuid.UUID) (*services.Session, error)
	Destroy(ctx context.Context, sess *services.Session) error
	SetDraft(ctx context.Context, sess *services.Session, draftID uuid.UUID) error
	ClearDraft(ctx context.Context, sess *services.Session) error
	AddFlash(ctx context.Context, sess *services.Session, level, message string) error
	PopFlashes(ctx context.Context, sess *services.Session) ([]services.Flash, error)
}

type AccountManager interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, *models.UserProfile, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ProfileOrDefault(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	TogglePublicThoughts(ctx context.Context, userID uuid.UUID) (bool, error)
	ConfirmEmail(ctx context.Context, token string) error
}

type ThoughtManager interface {
	Today() time.Time
	Create(ctx context.Context, authorID uuid.UUID, in services.ThoughtInput) (*models.Thought, error)
	GetOwn(ctx context.Context, id, authorID uuid.UUID) (*models.Thought, error)
	Update(ctx context.Context, id, authorID uuid.UUID, in services.ThoughtInput) (*models.Thought, error)
	Delete(ctx context.Context, id, authorID uuid.UUID) error
}

type FeedReader interface {
	Feed(ctx context.Context, viewerID uuid.UUID, showPublic bool, page int) (*models.ThoughtPage, error)
	ByAuthor(ctx context.Context, authorID uuid.UUID, page int) (*models.ThoughtPage, error)
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int, error)
}

type LikeToggler interface {
	ToggleLike(ctx context.Context, userID, thoughtID uuid.UUID) (*models.LikeState, error)
}

type DraftManager interface {
	Create(ctx context.Context, sessionKey string, in services.ThoughtInput) (*models.DraftThought, error)
	Publish(ctx context.Context, draftID uuid.UUID, sessionKey string, userID uuid.UUID) (*models.Thought, error)
}

type TagLister interface {
	List(ctx context.Context) ([]models.EmotionTag, error)
}

// Deps wires the services into a Handler.
type Deps struct {
	Sessions SessionManager
	Accounts AccountManager
	Thoughts ThoughtManager
	Feed     FeedReader
	Likes    LikeToggler
	Drafts   DraftManager
	Tags     TagLister
	Renderer *web.Renderer
	Log      *logger.Logger
	// SecureCookies marks the session cookie Secure (production).
	SecureCookies bool
	// BaseURL prefixes links written to the log, such as email confirmation.
	BaseURL string
}

// Handler serves the HTML pages and htmx fragments.
type Handler struct {
	sessions SessionManager
	accounts AccountManager
	thoughts ThoughtManager
	feed     FeedReader
	likes    LikeToggler
	drafts   DraftManager
	tags     TagLister
	render   *web.Renderer
	log      *logger.Logger
	secure   bool
	baseURL  string
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		sessions: d.Sessions,
		accounts: d.Accounts,
		thoughts: d.Thoughts,
		feed:     d.Feed,
		likes:    d.Likes,
		drafts:   d.Drafts,
		tags:     d.Tags,
		render:   d.Renderer,
		log:      log,
		secure:   d.SecureCookies,
		baseURL:  strings.TrimRight(d.BaseURL, "/"),
	}
}

// page builds the view model shared by every page.
func (h *Handler) page(r *http.Request, title string) *web.PageData {
	sess := middleware.SessionFrom(r.Context())
	data := &web.PageData{Title: title}
	if sess.IsAuthenticated() {
		data.Authenticated = true
		data.Viewer = sess.UserID
	}
	return data
}

// renderPage writes a full page, popping pending flashes into it.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data *web.PageData) {
	if sess := middleware.SessionFrom(r.Context()); sess != nil {
		flashes, err := h.sessions.PopFlashes(r.Context(), sess)
		if err != nil {
			h.log.Warn("failed to read flashes", "error", err)
		}
		for _, f := range flashes {
			data.Flashes = append(data.Flashes, web.Flash{Level: f.Level, Message: f.Message})
		}
	}

	var buf bytes.Buffer
	if err := h.render.Page(&buf, name, data); err != nil {
		h.log.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderPartial writes an htmx fragment.
func (h *Handler) renderPartial(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.render.Partial(&buf, name, data); err != nil {
		h.log.Error("failed to render partial", "partial", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if middleware.IsHTMX(r) {
		http.Error(w, message, status)
		return
	}
	data := h.page(r, http.StatusText(status))
	data.Status = status
	data.Message = message
	h.renderPage(w, r, status, "error.html", data)
}

// fail maps a service error to a response. Unexpected errors are logged and
// reported as 500 without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeNotFound:
			h.renderError(w, r, http.StatusNotFound, "Not found")
			return
		case models.CodeUnauth:
			h.renderError(w, r, http.StatusForbidden, appErr.Message)
			return
		case models.CodeValidation, models.CodeConflict, models.CodeDailyLimit:
			h.renderError(w, r, http.StatusBadRequest, appErr.Message)
			return
		}
	}
	h.log.Error("request failed", "path", r.URL.Path, "error", err)
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// redirect sends a 302, or an HX-Redirect for htmx requests.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if middleware.IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) flash(r *http.Request, level, message string) {
	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		return
	}
	if err := h.sessions.AddFlash(r.Context(), sess, level, message); err != nil {
		h.log.Warn("failed to store flash", "error", err)
	}
}

// emotionTags loads the tag list for forms. A failure leaves the select empty.
func (h *Handler) emotionTags(ctx context.Context) []models.EmotionTag {
	tags, err := h.tags.List(ctx)
	if err != nil {
		h.log.Error("failed to load emotion tags", "error", err)
		return nil
	}
	return tags
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// currentUser returns the authenticated user id. Routes behind RequireAuth
// always have one.
func currentUser(r *http.Request) uuid.UUID {
	return middleware.SessionFrom(r.Context()).UserID
}

// safeNext accepts only local absolute paths; anything else means /feed.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/feed"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/feed"
	}
	return next
}

// localReferer returns the Referer path when it points back at this host.
func localReferer(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return "/feed"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/feed"
	}
	return safeNext(u.RequestURI())
}
