package auth

import (
	"context"
	"net/http"
)

// contextKey is package-private so only this package can read or write the
// session value in a request context.
type contextKey string

const sessionKey contextKey = "session"

// CookieName is the session cookie. HttpOnly keeps it out of reach of
// page scripts; SameSite=Lax blocks cross-site POSTs from carrying it.
const CookieName = "auth-token"

// SetSessionCookie writes the session cookie. secure should be true in
// production (HTTPS only).
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuth enforces authentication on protected routes. It reads the
// session cookie, validates the token, and stores the Session in the
// request context; missing or invalid tokens end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthenticated","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the session if a valid token is present but never
// blocks the request. Used on the public map route, where a logged-in
// viewer additionally sees their own private entries.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := extractSession(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey, sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the authenticated session.
// Returns (nil, false) for anonymous requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil
}

func extractSession(r *http.Request, tokens *TokenService) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, err
	}
	return tokens.Validate(cookie.Value)
}
