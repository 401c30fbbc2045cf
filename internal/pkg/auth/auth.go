package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type used for storing values in a context without risking collisions.
type contextKey string

// ContextUserID is the key used to store and retrieve the user ID from the request context.
const ContextUserID contextKey = "contextUserID"

// CookieName is the name of the cookie carrying the session token.
const CookieName = "session"

// SessionMiddleware is an HTTP middleware function that reads the session cookie of incoming requests.
// A valid token stores the user ID in the request context. Requests without a cookie, or with an
// invalid or expired one, pass through anonymously; handlers decide whether a login is required.
func SessionMiddleware(secret []byte) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				h.ServeHTTP(w, r)
				return
			}

			claims, err := ParseToken(cookie.Value, secret)
			if err != nil {
				h.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// UserID returns the logged in user's ID stored by SessionMiddleware.
func UserID(ctx context.Context) (int32, bool) {
	userID, ok := ctx.Value(ContextUserID).(int32)
	return userID, ok && userID != 0
}

// SetSessionCookie issues a session token for userID and writes it as a cookie.
func SetSessionCookie(w http.ResponseWriter, userID int32, secret []byte) error {
	token, err := GenerateToken(userID, secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TOKENEXP.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// ClearSessionCookie instructs the client to drop its session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
