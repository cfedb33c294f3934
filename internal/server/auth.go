package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// authCookieName is the session cookie set on login and register.
const authCookieName = "auth-token"

// sessionTTL is how long a session stays valid.
const sessionTTL = 7 * 24 * time.Hour

type contextKey string

const userIDKey contextKey = "userID"

// userIDFromContext returns the authenticated user's ID, set by requireAuth.
func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// requireAuth resolves the session token from the auth cookie or a bearer
// Authorization header and injects the user ID into the request context.
// Requests without a valid session get a 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		session, err := s.store.GetSession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to verify session")
			return
		}
		if session == nil {
			writeError(w, http.StatusUnauthorized, "session expired or invalid")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
		next(w, r.WithContext(ctx))
	}
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
