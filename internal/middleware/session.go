package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
)

// SessionCookieName is the cookie holding the opaque session token.
const SessionCookieName = "thoughtify_session"

type sessionContextKey struct{}

// SessionGetter loads sessions by token.
type SessionGetter interface {
	Get(ctx context.Context, token string) (*services.Session, bool, error)
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *services.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFrom returns the request's session, or nil for a visitor without one.
func SessionFrom(ctx context.Context) *services.Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*services.Session)
	return sess
}

// LoadSession resolves the session cookie. Unknown tokens are treated as
// no session and the stale cookie is cleared.
func LoadSession(store SessionGetter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, ok, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				log.Error("failed to load session", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				ClearSessionCookie(w, cookie.Secure)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// SetSessionCookie writes the session cookie for sess.
func SetSessionCookie(w http.ResponseWriter, sess *services.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(services.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// IsHTMX reports whether the request came from htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// RequireAuth sends visitors without an authenticated session to the login
// page, remembering where they were going.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()).IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}

		target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
		if IsHTMX(r) {
			w.Header().Set("HX-Redirect", target)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
}
