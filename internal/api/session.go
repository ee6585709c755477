package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// sessionCookieName identifies the anonymous per-browser session. The value
// is an opaque key; the core attaches no meaning to it beyond stability.
const sessionCookieName = "wt_session"

const sessionMaxAge = 60 * 60 * 24 * 365

type contextKey string

const sessionContextKey contextKey = "session_key"

// SessionMiddleware ensures every request carries a stable session key,
// issuing a cookie on first sight and injecting the key into the request
// context for handlers to pass explicitly into the service.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var key string
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			key = cookie.Value
		} else {
			key = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    key,
				Path:     "/",
				MaxAge:   sessionMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(sessionContextKey).(string); ok {
		return key
	}
	return ""
}
