package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateChatRequest registers a chat on the backend.
type CreateChatRequest struct {
	Prompt string `json:"prompt"`
	ChatID string `json:"chatId"`
}

func (r CreateChatRequest) Validate() error {
	if err := validatePrompt(r.Prompt); err != nil {
		return err
	}
	return validateUUID("chatId", r.ChatID)
}

// AddMessageRequest persists a message that is not produced by a stream.
type AddMessageRequest struct {
	ChatID string `json:"chatId"`
	ID     string `json:"id"`
	Text   string `json:"text"`
	Role   Role   `json:"role"`
}

func (r AddMessageRequest) Validate() error {
	if err := validateUUID("chatId", r.ChatID); err != nil {
		return err
	}
	if err := validateUUID("id", r.ID); err != nil {
		return err
	}
	if r.Role != RoleUser && r.Role != RoleSystem {
		return fmt.Errorf("%w: unsupported role %q", ErrInvalidRequest, r.Role)
	}
	return nil
}

// StreamMessageRequest asks the default model to stream a reply.
type StreamMessageRequest struct {
	Prompt          string         `json:"prompt"`
	ChatID          string         `json:"chatId"`
	UserMessageID   string         `json:"userMessageId"`
	SystemMessageID string         `json:"systemMessageId"`
	History         []HistoryEntry `json:"history"`
	LastMessage     *LastMessage   `json:"lastMessage"`
}

func (r StreamMessageRequest) Validate() error {
	if err := validatePrompt(r.Prompt); err != nil {
		return err
	}
	if err := validateUUID("chatId", r.ChatID); err != nil {
		return err
	}
	if err := validateUUID("userMessageId", r.UserMessageID); err != nil {
		return err
	}
	return validateUUID("systemMessageId", r.SystemMessageID)
}

// StreamAgentMessageRequest asks a persona agent for one group chat turn.
// UserMessageID is set on the first turn only.
type StreamAgentMessageRequest struct {
	Prompt          string         `json:"prompt"`
	ChatID          string         `json:"chatId"`
	UserMessageID   *string        `json:"userMessageId"`
	SystemMessageID string         `json:"systemMessageId"`
	History         []HistoryEntry `json:"history"`
	LastMessage     *LastMessage   `json:"lastMessage"`
	Agent           Agent          `json:"agent"`
	TalkMore        bool           `json:"talkMore"`
	SelectedAI      string         `json:"selectedAI"`
}

func (r StreamAgentMessageRequest) Validate() error {
	if err := validatePrompt(r.Prompt); err != nil {
		return err
	}
	if err := validateUUID("chatId", r.ChatID); err != nil {
		return err
	}
	if r.UserMessageID != nil {
		if err := validateUUID("userMessageId", *r.UserMessageID); err != nil {
			return err
		}
	}
	if err := validateUUID("systemMessageId", r.SystemMessageID); err != nil {
		return err
	}
	if strings.TrimSpace(r.Agent.Name) == "" {
		return fmt.Errorf("%w: agent name is required", ErrInvalidRequest)
	}
	return nil
}

type UpdateMemoryRequest struct {
	History []HistoryEntry `json:"history"`
}

type ChangeMemoryRequest struct {
	Memory string `json:"memory"`
}

type AgentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

func (r AgentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	return nil
}

type GeneratePersonaRequest struct {
	Persona string `json:"persona"`
}

func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

func validateUUID(field, value string) error {
	id, err := uuid.Parse(value)
	if err != nil || id.Version() != 4 {
		return fmt.Errorf("%w: invalid UUID v4 format for %s", ErrInvalidRequest, field)
	}
	return nil
}
