package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dskvich/memi-chat/pkg/api/response"
	"github.com/dskvich/memi-chat/pkg/auth"
)

type Authenticator interface {
	Authenticate(token string) (int64, bool)
}

// Auth resolves the bearer token to a user id and stores it in the request context.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	writer := response.JSONResponseWriter{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

			userID, ok := authenticator.Authenticate(strings.TrimSpace(token))
			if !ok {
				slog.WarnContext(r.Context(), "Unauthorized access attempt", "path", r.URL.Path)
				writer.WriteErrorResponse(w, http.StatusUnauthorized, "Not authorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(r.Context(), userID)))
		})
	}
}
