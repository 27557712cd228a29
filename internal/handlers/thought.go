package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// thoughtID reads the {id} path parameter.
func thoughtID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) CreateThoughtPage(w http.ResponseWriter, r *http.Request) {
	values := map[string]string{"is_public": "true"}
	if checked(r.URL.Query().Get("daily")) {
		values["is_daily_thought"] = "true"
	}
	data := h.page(r, "New thought")
	data.Form = web.NewForm(values)
	data.Tags = h.emotionTags(r.Context())
	h.renderPage(w, r, http.StatusOK, "create_thought.html", data)
}

// CreateThought publishes a thought. A second daily thought on the same
// calendar day is refused with a flash message on the feed.
func (h *Handler) CreateThought(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f thoughtForm
	if err := decodeForm(r, &f); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
		return
	}
	in, form := f.parse()
	if !form.Valid() {
		h.rerenderThoughtForm(w, r, "create_thought.html", "New thought", form, nil)
		return
	}

	userID := currentUser(r)
	thought, err := h.thoughts.Create(ctx, userID, in)
	switch {
	case errors.Is(err, models.ErrDailyThoughtTaken), errors.Is(err, models.ErrProfileMissing):
		var appErr *models.AppError
		errors.As(err, &appErr)
		h.flash(r, FlashError, appErr.Message)
		h.redirect(w, r, "/feed")
		return
	case err != nil:
		if applyError(form, err) {
			h.rerenderThoughtForm(w, r, "create_thought.html", "New thought", form, nil)
			return
		}
		h.fail(w, r, err)
		return
	}

	if middleware.IsHTMX(r) {
		h.renderPartial(w, http.StatusCreated, "thought", web.ThoughtItem{Thought: thought, Own: true})
		return
	}
	if thought.IsDailyThought {
		h.flash(r, FlashSuccess, "Your daily thought has been shared!")
	} else {
		h.flash(r, FlashSuccess, "Your thought has been shared!")
	}
	h.redirect(w, r, "/feed")
}

func (h *Handler) UpdateThoughtPage(w http.ResponseWriter, r *http.Request) {
	id, ok := thoughtID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Not found")
		return
	}
	thought, err := h.thoughts.GetOwn(r.Context(), id, currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := h.page(r, "Edit thought")
	data.Thought = thought
	data.Form = web.NewForm(thoughtValues(thought))
	data.Tags = h.emotionTags(r.Context())
	h.renderPage(w, r, http.StatusOK, "update_thought.html", data)
}

// UpdateThought edits content, emotion and visibility. The daily flag is
// fixed once the thought exists.
func (h *Handler) UpdateThought(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := thoughtID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Not found")
		return
	}
	userID := currentUser(r)

	current, err := h.thoughts.GetOwn(ctx, id, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var f thoughtForm
	if err := decodeForm(r, &f); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
		return
	}
	f.IsDailyThought = ""
	in, form := f.parse()
	if !form.Valid() {
		h.rerenderThoughtForm(w, r, "update_thought.html", "Edit thought", form, current)
		return
	}

	if _, err := h.thoughts.Update(ctx, id, userID, in); err != nil {
		if applyError(form, err) {
			h.rerenderThoughtForm(w, r, "update_thought.html", "Edit thought", form, current)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.flash(r, FlashSuccess, "Your thought has been updated!")
	h.redirect(w, r, "/feed")
}

func (h *Handler) DeleteThoughtPage(w http.ResponseWriter, r *http.Request) {
	id, ok := thoughtID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Not found")
		return
	}
	thought, err := h.thoughts.GetOwn(r.Context(), id, currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := h.page(r, "Delete thought")
	data.Thought = thought
	h.renderPage(w, r, http.StatusOK, "delete_thought.html", data)
}

// DeleteThought removes the thought. htmx callers get {"success": true} and
// drop the card themselves.
func (h *Handler) DeleteThought(w http.ResponseWriter, r *http.Request) {
	id, ok := thoughtID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Not found")
		return
	}
	if err := h.thoughts.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	if middleware.IsHTMX(r) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	h.flash(r, FlashSuccess, "Your thought has been deleted.")
	http.Redirect(w, r, "/feed", http.StatusFound)
}

// LikeThought toggles the user's like. htmx callers get the refreshed button.
func (h *Handler) LikeThought(w http.ResponseWriter, r *http.Request) {
	id, ok := thoughtID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Not found")
		return
	}
	state, err := h.likes.ToggleLike(r.Context(), currentUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if middleware.IsHTMX(r) {
		h.renderPartial(w, http.StatusOK, "like_button", state)
		return
	}
	http.Redirect(w, r, localReferer(r), http.StatusFound)
}

func (h *Handler) rerenderThoughtForm(w http.ResponseWriter, r *http.Request, page, title string, form *web.Form, thought *models.Thought) {
	data := h.page(r, title)
	data.Form = form
	data.Thought = thought
	data.Tags = h.emotionTags(r.Context())
	h.renderPage(w, r, formStatus(r), page, data)
}
