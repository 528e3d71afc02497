package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/memi-chat/pkg/domain"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "secret")
	require.NoError(t, err)
	c.rc.RetryWaitMin = time.Millisecond
	c.rc.RetryWaitMax = 5 * time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateChat(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   bool
	}{
		{name: "success", status: http.StatusOK, body: map[string]any{"message": "success", "chat": "c1"}, want: true},
		{name: "error envelope", status: http.StatusOK, body: map[string]any{"message": "error"}, want: false},
		{name: "server error", status: http.StatusInternalServerError, body: map[string]any{"message": "error"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/user/chat/new", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

				var req domain.CreateChatRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "Hi", req.Prompt)

				writeJSON(w, tt.status, tt.body)
			}))

			assert.Equal(t, tt.want, c.CreateChat(context.Background(), "Hi", "c1"))
		})
	}
}

func TestStreamMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: Hel\n\ndata: lo\n\n")
	}))

	body, err := c.StreamMessage(context.Background(), domain.StreamMessageRequest{Prompt: "Hi"})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: Hel\n\ndata: lo\n\n", string(raw))
}

func TestStreamMessageBadStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "error"})
	}))

	body, err := c.StreamAgentMessage(context.Background(), domain.StreamAgentMessageRequest{Prompt: "Hi"})
	assert.Nil(t, body)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestGetChatTitleRetriesAndNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/user/chat/c1/title":
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"message": "success", "title": "Greetings"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "error"})
		}
	}))

	title, err := c.GetChatTitle(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Greetings", title)
	assert.EqualValues(t, 2, calls.Load())

	_, err = c.GetChatTitle(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveAgent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := int64(7)
		switch r.URL.Path {
		case "/v1/user/agents/new":
			writeJSON(w, http.StatusOK, map[string]any{"message": "success", "agent": domain.Agent{ID: &id, Name: "Mom"}})
		case "/v1/user/agents/update/7":
			writeJSON(w, http.StatusOK, map[string]any{"message": "success", "agent": domain.Agent{ID: &id, Name: "Mother"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	created, err := c.SaveAgent(context.Background(), domain.Agent{Name: "Mom", Prompt: "Be kind"})
	require.NoError(t, err)
	require.True(t, created.Saved())

	created.Name = "Mother"
	updated, err := c.SaveAgent(context.Background(), created)
	require.NoError(t, err)
	assert.Equal(t, "Mother", updated.Name)
}
