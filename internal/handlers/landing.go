package handlers

import (
	"net/http"

	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
)

// Landing shows the thought form to everyone.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "")
	data.Form = web.NewForm(map[string]string{"is_public": "true"})
	data.Tags = h.emotionTags(r.Context())
	h.renderPage(w, r, http.StatusOK, "index.html", data)
}

// SubmitLanding posts the thought directly for signed-in users. Visitors get
// a draft tied to their session and are sent to sign up; the draft is
// published when the signup completes.
func (h *Handler) SubmitLanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f thoughtForm
	if err := decodeForm(r, &f); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
		return
	}
	f.IsDailyThought = ""
	in, form := f.parse()
	if !form.Valid() {
		h.rerenderLanding(w, r, form)
		return
	}

	sess := middleware.SessionFrom(ctx)
	if sess.IsAuthenticated() {
		if _, err := h.thoughts.Create(ctx, sess.UserID, in); err != nil {
			if applyError(form, err) {
				h.rerenderLanding(w, r, form)
				return
			}
			h.fail(w, r, err)
			return
		}
		h.flash(r, FlashSuccess, "Your thought has been shared!")
		h.redirect(w, r, "/feed")
		return
	}

	if sess == nil {
		created, err := h.sessions.Create(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		sess = created
		middleware.SetSessionCookie(w, sess, h.secure)
	}

	draft, err := h.drafts.Create(ctx, h.sessions.Key(sess.Token), in)
	if err != nil {
		if applyError(form, err) {
			h.rerenderLanding(w, r, form)
			return
		}
		h.fail(w, r, err)
		return
	}
	if err := h.sessions.SetDraft(ctx, sess, draft.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/signup")
}

func (h *Handler) rerenderLanding(w http.ResponseWriter, r *http.Request, form *web.Form) {
	data := h.page(r, "")
	data.Form = form
	data.Tags = h.emotionTags(r.Context())
	h.renderPage(w, r, formStatus(r), "index.html", data)
}

// formStatus is 422 for htmx submissions so the client can tell a rejected
// form from a success, and 200 for plain form posts.
func formStatus(r *http.Request) int {
	if middleware.IsHTMX(r) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}
