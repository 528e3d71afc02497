package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dskvich/memi-chat/pkg/api/response"
	"github.com/dskvich/memi-chat/pkg/auth"
)

// RateLimit allows each user requests requests per window. It must run after Auth.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[int64]*rate.Limiter)
	)
	limiterFor := func(userID int64) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		l, ok := limiters[userID]
		if !ok {
			l = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
			limiters[userID] = l
		}
		return l
	}
	writer := response.JSONResponseWriter{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := auth.UserIDFromContext(r.Context())

			if !limiterFor(userID).Allow() {
				slog.WarnContext(r.Context(), "Rate limit exceeded", "userID", userID)
				writer.WriteErrorResponse(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
