package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/memi-chat/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request context with the caller's request id, or a new
// one, and logs the request once it is served.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logger.ContextWithRequestID(r.Context(), id)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "Request served", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
