package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dskvich/memi-chat/pkg/api/response"
	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
	"github.com/dskvich/memi-chat/pkg/services"
	"github.com/dskvich/memi-chat/pkg/sse"
)

type ChatService interface {
	CreateChat(ctx context.Context, userID int64, req domain.CreateChatRequest) error
	AddMessage(ctx context.Context, req domain.AddMessageRequest) error
	StreamMessage(ctx context.Context, req domain.StreamMessageRequest, emit services.EmitFunc) error
	StreamAgentMessage(ctx context.Context, userID int64, req domain.StreamAgentMessageRequest, emit services.EmitFunc) error
	Chats(ctx context.Context, userID int64) ([]domain.Chat, error)
	Title(ctx context.Context, userID int64, chatID string) (string, error)
	Messages(ctx context.Context, userID int64, chatID string) ([]domain.Message, error)
	DeleteChat(ctx context.Context, userID int64, chatID string) error
}

type MemoryUpdater interface {
	UpdateMemory(ctx context.Context, userID int64, history []domain.HistoryEntry) error
}

type chat struct {
	service ChatService
	memory  MemoryUpdater
	writer  response.JSONResponseWriter
}

func NewChat(service ChatService, memory MemoryUpdater) *chat {
	return &chat{
		service: service,
		memory:  memory,
		writer:  response.JSONResponseWriter{},
	}
}

func (c *chat) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateChatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	if err := c.service.CreateChat(r.Context(), userID(r), req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, response.Fields{
		"chat": domain.Chat{ID: req.ChatID, Title: domain.NewChatTitle},
	})
}

func (c *chat) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.AddMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	if err := c.service.AddMessage(r.Context(), req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, nil)
}

func (c *chat) StreamMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.StreamMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.stream(w, r, func(emit services.EmitFunc) error {
		return c.service.StreamMessage(r.Context(), req, emit)
	})
}

func (c *chat) StreamAgentMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.StreamAgentMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.stream(w, r, func(emit services.EmitFunc) error {
		return c.service.StreamAgentMessage(r.Context(), userID(r), req, emit)
	})
}

// stream switches the response to an event stream. Once the headers are out
// failures can only be logged.
func (c *chat) stream(w http.ResponseWriter, r *http.Request, run func(emit services.EmitFunc) error) {
	sw, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	if err := run(sw.WriteEvent); err != nil {
		slog.ErrorContext(r.Context(), "Streaming failed", "path", r.URL.Path, logger.Err(err))
	}
}

func (c *chat) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMemoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	if err := c.memory.UpdateMemory(r.Context(), userID(r), req.History); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, nil)
}

func (c *chat) Chats(w http.ResponseWriter, r *http.Request) {
	chats, err := c.service.Chats(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, response.Fields{"chats": chats})
}

func (c *chat) Title(w http.ResponseWriter, r *http.Request) {
	title, err := c.service.Title(r.Context(), userID(r), r.PathValue("chatId"))
	if err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, response.Fields{"title": title})
}

func (c *chat) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := c.service.Messages(r.Context(), userID(r), r.PathValue("chatId"))
	if err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, response.Fields{"messages": messages})
}

func (c *chat) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := c.service.DeleteChat(r.Context(), userID(r), r.PathValue("chatId")); err != nil {
		writeError(w, r, c.writer, err)
		return
	}

	c.writer.WriteSuccessResponse(w, nil)
}
