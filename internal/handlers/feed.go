package handlers

import (
	"net/http"

	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
)

// Feed lists the user's own thoughts plus public ones when their profile
// allows it. htmx requests for later pages get only the list fragment.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)

	profile, err := h.accounts.ProfileOrDefault(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.feed.Feed(ctx, userID, profile.ShowPublicThoughts, models.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := h.page(r, "Feed")
	data.Page = page
	data.BasePath = "/feed"
	if middleware.IsHTMX(r) {
		h.renderPartial(w, http.StatusOK, "thought_list", data)
		return
	}

	data.Profile = profile
	data.ShowDailyNudge = profile.CanPostDailyThought(h.thoughts.Today())
	h.renderPage(w, r, http.StatusOK, "feed.html", data)
}

// MyThoughts lists every thought the user wrote, private ones included.
func (h *Handler) MyThoughts(w http.ResponseWriter, r *http.Request) {
	page, err := h.feed.ByAuthor(r.Context(), currentUser(r), models.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := h.page(r, "My thoughts")
	data.Page = page
	data.BasePath = "/my-thoughts"
	if middleware.IsHTMX(r) {
		h.renderPartial(w, http.StatusOK, "thought_list", data)
		return
	}
	h.renderPage(w, r, http.StatusOK, "my_thoughts.html", data)
}
