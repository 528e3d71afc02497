package chat

import (
	"context"
	"fmt"
	"slices"

	"github.com/dskvich/memi-chat/pkg/domain"
)

// RefreshChats replaces the local chat list with the backend's.
func (s *Service) RefreshChats(ctx context.Context) error {
	chats, err := s.api.GetChats(ctx)
	if err != nil {
		return fmt.Errorf("fetching chats: %w", err)
	}
	s.chats.SetChats(chats)
	return nil
}

// LoadMessages replaces the local messages of chatID with the backend's,
// unless the chat is streaming.
func (s *Service) LoadMessages(ctx context.Context, chatID string) error {
	if s.chats.IsStreaming(chatID) {
		return domain.ErrAlreadyStreaming
	}

	messages, err := s.api.GetChatMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("fetching messages of chat %s: %w", chatID, err)
	}
	s.chats.SetMessages(chatID, messages)
	return nil
}

// DeleteChat removes the chat on the backend, then locally. A running stream
// of the chat is aborted first.
func (s *Service) DeleteChat(ctx context.Context, chatID string) error {
	if s.chats.IsStreaming(chatID) {
		s.AbortStream(chatID)
	}
	if !s.api.DeleteChat(ctx, chatID) {
		return fmt.Errorf("deleting chat %s failed", chatID)
	}
	s.chats.DeleteChat(chatID)
	return nil
}

// AddChatMessage stores a message that does not come from a stream, such as
// a caption, locally and on the backend.
func (s *Service) AddChatMessage(ctx context.Context, chatID string, role domain.Role, text string) (domain.Message, error) {
	if !slices.Contains([]domain.Role{domain.RoleUser, domain.RoleSystem}, role) {
		return domain.Message{}, fmt.Errorf("%w: unsupported role %q", domain.ErrInvalidRequest, role)
	}

	msg := domain.Message{ID: s.newID(), ChatID: chatID, Role: role, Text: text}
	s.chats.AddMessage(msg)

	if !s.api.AddChatMessage(ctx, domain.AddMessageRequest{ChatID: chatID, ID: msg.ID, Text: text, Role: role}) {
		return msg, fmt.Errorf("saving message of chat %s failed", chatID)
	}
	return msg, nil
}
