package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
)

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFrom(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/feed", http.StatusFound)
		return
	}
	data := h.page(r, "Sign up")
	data.Form = web.NewForm(nil)
	h.renderPage(w, r, http.StatusOK, "signup.html", data)
}

// Signup creates the account, logs the new user in and publishes the draft
// they wrote before signing up, if any. A draft that cannot be published
// never fails the signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f signupForm
	if err := decodeForm(r, &f); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
		return
	}

	user, profile, err := h.accounts.Signup(ctx, services.SignupInput{
		Email:     f.Email,
		Password1: f.Password1,
		Password2: f.Password2,
	})
	if err != nil {
		form := web.NewForm(map[string]string{"email": f.Email})
		if applyError(form, err) {
			data := h.page(r, "Sign up")
			data.Form = form
			h.renderPage(w, r, formStatus(r), "signup.html", data)
			return
		}
		h.fail(w, r, err)
		return
	}

	h.log.Info("email confirmation link",
		"user_id", user.ID,
		"url", h.baseURL+"/confirm-email/"+profile.ConfirmationToken,
	)

	anon := middleware.SessionFrom(ctx)
	var draftKey string
	if anon != nil {
		draftKey = h.sessions.Key(anon.Token)
	}

	sess, err := h.sessions.Login(ctx, anon, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, sess, h.secure)
	r = r.WithContext(middleware.WithSession(ctx, sess))

	if sess.DraftID.Valid {
		thought, err := h.drafts.Publish(ctx, sess.DraftID.UUID, draftKey, user.ID)
		if err != nil {
			h.log.Error("failed to publish draft", "user_id", user.ID, "draft_id", sess.DraftID.UUID, "error", err)
		} else if thought != nil {
			h.flash(r, FlashSuccess, "Your thought has been published!")
		}
		if err := h.sessions.ClearDraft(ctx, sess); err != nil {
			h.log.Warn("failed to clear draft from session", "error", err)
		}
	}

	h.redirect(w, r, "/feed")
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if middleware.SessionFrom(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, safeNext(next), http.StatusFound)
		return
	}
	data := h.page(r, "Log in")
	data.Form = web.NewForm(nil)
	data.Next = next
	h.renderPage(w, r, http.StatusOK, "login.html", data)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f loginForm
	if err := decodeForm(r, &f); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
		return
	}

	form := web.NewForm(map[string]string{"email": f.Email})
	rerender := func() {
		data := h.page(r, "Log in")
		data.Form = form
		data.Next = f.Next
		h.renderPage(w, r, formStatus(r), "login.html", data)
	}

	if err := validate.Struct(&f); err != nil {
		form.Errors = fieldMessages(err)
		rerender()
		return
	}

	user, err := h.accounts.Authenticate(ctx, f.Email, f.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		form.Error = models.ErrInvalidCredentials.Message
		rerender()
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.sessions.Login(ctx, middleware.SessionFrom(ctx), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, sess, h.secure)
	h.redirect(w, r, safeNext(f.Next))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFrom(r.Context()); sess != nil {
		if err := h.sessions.Destroy(r.Context(), sess); err != nil {
			h.log.Warn("failed to destroy session", "error", err)
		}
	}
	middleware.ClearSessionCookie(w, h.secure)
	h.redirect(w, r, "/")
}
