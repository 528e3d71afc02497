package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
)

// CreateChat registers the chat on the backend and reports success.
func (c *Client) CreateChat(ctx context.Context, prompt, chatID string) bool {
	req := domain.CreateChatRequest{Prompt: prompt, ChatID: chatID}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/user/chat/new", req, nil); err != nil {
		slog.WarnContext(ctx, "Creating chat failed", "chatID", chatID, logger.Err(err))
		return false
	}
	return true
}

// AddChatMessage persists a message that did not come from a stream.
func (c *Client) AddChatMessage(ctx context.Context, msg domain.AddMessageRequest) bool {
	if err := c.doJSON(ctx, http.MethodPost, "/v1/user/chat/add/message", msg, nil); err != nil {
		slog.WarnContext(ctx, "Adding chat message failed", "chatID", msg.ChatID, logger.Err(err))
		return false
	}
	return true
}

func (c *Client) StreamMessage(ctx context.Context, req domain.StreamMessageRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/v1/user/chat/stream/message", req)
}

func (c *Client) StreamAgentMessage(ctx context.Context, req domain.StreamAgentMessageRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/v1/user/chat/stream/agent/message", req)
}

func (c *Client) GetChatTitle(ctx context.Context, chatID string) (string, error) {
	var resp struct {
		Title string `json:"title"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/user/chat/"+url.PathEscape(chatID)+"/title", nil, &resp); err != nil {
		return "", err
	}
	return resp.Title, nil
}

func (c *Client) GetChatMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/user/chat/"+url.PathEscape(chatID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// GetChats returns the user's chats oldest first.
func (c *Client) GetChats(ctx context.Context) ([]domain.Chat, error) {
	var resp struct {
		Chats []domain.Chat `json:"chats"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/user/chat/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

func (c *Client) DeleteChat(ctx context.Context, chatID string) bool {
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/user/chat/"+url.PathEscape(chatID), nil, nil); err != nil {
		slog.WarnContext(ctx, "Deleting chat failed", "chatID", chatID, logger.Err(err))
		return false
	}
	return true
}

func (c *Client) UpdateMemory(ctx context.Context, history []domain.HistoryEntry) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/user/chat/update/memory", domain.UpdateMemoryRequest{History: history}, nil)
}

func (c *Client) GetMemory(ctx context.Context) (string, error) {
	var resp struct {
		Memory *string `json:"memory"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/user/memory", nil, &resp); err != nil {
		return "", err
	}
	if resp.Memory == nil {
		return "", nil
	}
	return *resp.Memory, nil
}

func (c *Client) ChangeMemory(ctx context.Context, memory string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/user/memory/change", domain.ChangeMemoryRequest{Memory: memory}, nil)
}
