package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dklimov/circles/internal/auth"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// Auth creates authentication middleware. It extracts the bearer token
// from the Authorization header, resolves it to a user id through the
// verifier and stores the id in the request context.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"code":"UNAUTHORIZED","message":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"code":"UNAUTHORIZED","message":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, `{"code":"UNAUTHORIZED","message":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID retrieves the authenticated user id from the request context.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}
