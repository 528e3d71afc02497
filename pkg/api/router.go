// Package api wires the edge API handlers into an http.Handler.
package api

import (
	"net/http"
	"time"

	"github.com/dskvich/memi-chat/pkg/api/handler"
	"github.com/dskvich/memi-chat/pkg/api/middleware"
)

const (
	rateLimitRequests = 100
	rateLimitWindow   = 10 * time.Minute
)

type MemoryService interface {
	handler.MemoryService
	handler.MemoryUpdater
}

type Handlers struct {
	Chat   handler.ChatService
	Memory MemoryService
	Agent  handler.AgentService
	DB     handler.Pinger
	Auth   middleware.Authenticator
}

// NewRouter routes /v1/user/* behind auth and the per-user rate limit.
// /healthz is public.
func NewRouter(h Handlers) http.Handler {
	chat := handler.NewChat(h.Chat, h.Memory)
	agent := handler.NewAgent(h.Agent)
	memory := handler.NewMemory(h.Memory)
	health := handler.NewHealth(h.DB)

	user := http.NewServeMux()
	user.HandleFunc("POST /v1/user/chat/new", chat.CreateChat)
	user.HandleFunc("POST /v1/user/chat/add/message", chat.AddMessage)
	user.HandleFunc("POST /v1/user/chat/stream/message", chat.StreamMessage)
	user.HandleFunc("POST /v1/user/chat/stream/agent/message", chat.StreamAgentMessage)
	user.HandleFunc("POST /v1/user/chat/update/memory", chat.UpdateMemory)
	user.HandleFunc("GET /v1/user/chat/all", chat.Chats)
	user.HandleFunc("GET /v1/user/chat/{chatId}/messages", chat.Messages)
	user.HandleFunc("GET /v1/user/chat/{chatId}/title", chat.Title)
	user.HandleFunc("DELETE /v1/user/chat/{chatId}", chat.DeleteChat)

	user.HandleFunc("GET /v1/user/agents", agent.Agents)
	user.HandleFunc("POST /v1/user/agents/new", agent.CreateAgent)
	user.HandleFunc("POST /v1/user/agents/update/{id}", agent.UpdateAgent)
	user.HandleFunc("DELETE /v1/user/agents/delete/{id}", agent.DeleteAgent)
	user.HandleFunc("POST /v1/user/agents/generate/persona", agent.GeneratePersona)

	user.HandleFunc("GET /v1/user/memory", memory.Memory)
	user.HandleFunc("POST /v1/user/memory/change", memory.ChangeMemory)

	protected := middleware.Auth(h.Auth)(middleware.RateLimit(rateLimitRequests, rateLimitWindow)(user))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Check)
	mux.Handle("/v1/user/", protected)

	return middleware.RequestID(mux)
}
