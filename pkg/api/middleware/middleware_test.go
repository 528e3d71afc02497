package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/memi-chat/pkg/auth"
	"github.com/dskvich/memi-chat/pkg/logger"
)

type staticAuth map[string]int64

func (s staticAuth) Authenticate(token string) (int64, bool) {
	id, ok := s[token]
	return id, ok
}

func userEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.UserIDFromContext(r.Context()); ok {
			w.Header().Set("X-User", http.StatusText(int(id)))
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	h := Auth(staticAuth{"secret": http.StatusTeapot})(userEcho())

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"valid token", "Bearer secret", http.StatusNoContent},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/user/chat/all", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusNoContent {
				assert.Equal(t, http.StatusText(http.StatusTeapot), rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRateLimitPerUser(t *testing.T) {
	h := Auth(staticAuth{"a": 1, "b": 2})(RateLimit(2, time.Hour)(userEcho()))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("a"))
	assert.Equal(t, http.StatusNoContent, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusNoContent, do("b"))
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = logger.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", got)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, got)
	assert.NotEqual(t, "req-1", got)
	assert.Equal(t, got, rec.Header().Get(RequestIDHeader))
}
