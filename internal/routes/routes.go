package routes

import (
	"net/http"

	"github.com/AnshRaj112/thoughtify-backend/internal/handlers"
	"github.com/AnshRaj112/thoughtify-backend/internal/metrics"
	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers every page. writeLimit, when set, throttles the
// auth forms and thought submissions.
func SetupRoutes(r chi.Router, h *handlers.Handler, writeLimit func(http.Handler) http.Handler) {
	if writeLimit == nil {
		writeLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	// Public pages
	r.Get("/", h.Landing)
	r.With(writeLimit).Post("/", h.SubmitLanding)
	r.Get("/signup", h.SignupPage)
	r.With(writeLimit).Post("/signup", h.Signup)
	r.Get("/login", h.LoginPage)
	r.With(writeLimit).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/confirm-email/{token}", h.ConfirmEmail)

	// Signed-in pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/feed", h.Feed)
		r.Get("/my-thoughts", h.MyThoughts)
		r.Get("/profile", h.Profile)
		r.Post("/toggle-public-thoughts", h.TogglePublicThoughts)

		r.Get("/thought/create", h.CreateThoughtPage)
		r.With(writeLimit).Post("/thought/create", h.CreateThought)
		r.Get("/thought/{id}/update", h.UpdateThoughtPage)
		r.With(writeLimit).Post("/thought/{id}/update", h.UpdateThought)
		r.Get("/thought/{id}/delete", h.DeleteThoughtPage)
		r.Post("/thought/{id}/delete", h.DeleteThought)
		r.Post("/thought/{id}/like", h.LikeThought)
	})
}
