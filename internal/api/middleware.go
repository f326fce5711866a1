package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/zero2prod/newsletter/internal/session"
)

type contextKey string

const userIDKey contextKey = "user_id"

// userIDFrom returns the authenticated user's id, if any.
func userIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// requireAuth resolves the session cookie to a user id and stores it in
// the request context. Unauthenticated requests are redirected to /login.
func requireAuth(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				seeOther(w, "/login")
				return
			}

			userID, err := sessions.UserID(r.Context(), token)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "session lookup failed")
				return
			}
			if userID == nil {
				seeOther(w, "/login")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, *userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
