package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"spendwise/internal/core"
)

const (
	CookieName      = "session"
	DefaultLifetime = 30 * 24 * time.Hour
)

var ErrSessionExpired = errors.New("session expired")

type contextKey struct{}

// NeedsRenewal reports whether s is in the second half of its lifetime.
func NeedsRenewal(s core.Session, now time.Time, lifetime time.Duration) bool {
	return s.ExpiresAt.Sub(now) < lifetime/2
}

// SessionResolver turns a cookie token into a live session, renewing it when due.
// Renewed is true when ExpiresAt moved and the cookie should be refreshed.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (s core.Session, renewed bool, err error)
}

// Cookies writes and clears the session cookie.
type Cookies struct {
	Secure   bool
	Lifetime time.Duration
}

func (c Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.lifetime().Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) lifetime() time.Duration {
	if c.Lifetime <= 0 {
		return DefaultLifetime
	}
	return c.Lifetime
}

// Token returns the session token carried by r, if any.
func Token(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the authenticated user id, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware requires a valid session. Unauthenticated browsers are sent to
// loginPath; HTMX requests get an HX-Redirect so the whole page navigates.
func Middleware(resolver SessionResolver, cookies Cookies, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := Token(r)
			if token == "" {
				redirectToLogin(w, r, loginPath)
				return
			}

			session, renewed, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				slog.DebugContext(r.Context(), "Rejected session", "error", err)
				cookies.Clear(w)
				redirectToLogin(w, r, loginPath)
				return
			}
			if renewed {
				cookies.Set(w, token)
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), session.UserID)))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
