package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)

	user, err := h.accounts.GetUser(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.accounts.ProfileOrDefault(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	count, err := h.feed.CountByAuthor(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := h.page(r, "Profile")
	data.User = user
	data.Profile = profile
	data.ThoughtCount = count
	data.ShowDailyNudge = profile.CanPostDailyThought(h.thoughts.Today())
	h.renderPage(w, r, http.StatusOK, "profile.html", data)
}

// TogglePublicThoughts flips whether public thoughts appear in the feed.
func (h *Handler) TogglePublicThoughts(w http.ResponseWriter, r *http.Request) {
	show, err := h.accounts.TogglePublicThoughts(r.Context(), currentUser(r))
	switch {
	case errors.Is(err, models.ErrProfileMissing):
		h.flash(r, FlashError, models.ErrProfileMissing.Message)
	case err != nil:
		h.fail(w, r, err)
		return
	case show:
		h.flash(r, FlashInfo, "Public thoughts are now shown in your feed.")
	default:
		h.flash(r, FlashInfo, "Public thoughts are now hidden from your feed.")
	}
	h.redirect(w, r, "/feed")
}

// ConfirmEmail consumes a confirmation token. It does not need a session.
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Email confirmation")
	err := h.accounts.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	switch {
	case err == nil:
		data.Message = "Your email has been confirmed. Thank you!"
		h.renderPage(w, r, http.StatusOK, "confirm_email.html", data)
	case models.HasCode(err, models.CodeValidation):
		var appErr *models.AppError
		errors.As(err, &appErr)
		data.Message = appErr.Message
		h.renderPage(w, r, http.StatusBadRequest, "confirm_email.html", data)
	default:
		h.fail(w, r, err)
	}
}
