package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
)

const backgroundTimeout = time.Minute

type ModelProvider interface {
	StreamText(ctx context.Context, req domain.ModelRequest) iter.Seq2[string, error]
	GenerateText(ctx context.Context, req domain.ModelRequest) (string, error)
}

type ChatRepository interface {
	Create(ctx context.Context, userID int64, chat domain.Chat) error
	UpdateTitle(ctx context.Context, chatID, title string) error
	GetByID(ctx context.Context, userID int64, chatID string) (domain.Chat, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Chat, error)
	Delete(ctx context.Context, userID int64, chatID string) error
}

type MessageRepository interface {
	Save(ctx context.Context, msg domain.Message) error
	AppendText(ctx context.Context, messageID, text string) error
	ListByChat(ctx context.Context, chatID string) ([]domain.Message, error)
}

type MemoryRepository interface {
	GetByUserID(ctx context.Context, userID int64) (domain.UserMemory, error)
	Save(ctx context.Context, userID int64, memory string) error
}

// EmitFunc sends one event to the client.
type EmitFunc func(data string) error

type chatService struct {
	provider    ModelProvider
	chatRepo    ChatRepository
	messageRepo MessageRepository
	memoryRepo  MemoryRepository
	models      Models

	wg sync.WaitGroup
}

func NewChatService(
	provider ModelProvider,
	chatRepo ChatRepository,
	messageRepo MessageRepository,
	memoryRepo MemoryRepository,
	models Models,
) *chatService {
	return &chatService{
		provider:    provider,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		memoryRepo:  memoryRepo,
		models:      models,
	}
}

// Wait blocks until background title generation is done.
func (c *chatService) Wait() {
	c.wg.Wait()
}

// CreateChat stores the chat under the placeholder title and generates the
// real title from prompt in the background.
func (c *chatService) CreateChat(ctx context.Context, userID int64, req domain.CreateChatRequest) error {
	chat := domain.Chat{ID: req.ChatID, Title: domain.NewChatTitle}
	if err := c.chatRepo.Create(ctx, userID, chat); err != nil {
		return fmt.Errorf("creating chat: %w", err)
	}

	bgCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.generateTitle(bgCtx, req.ChatID, req.Prompt)
	}()

	return nil
}

func (c *chatService) generateTitle(ctx context.Context, chatID, prompt string) {
	ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()

	text, err := c.provider.GenerateText(ctx, domain.ModelRequest{
		Model:             c.models.Title,
		SystemInstruction: newChatTitlePrompt,
		Prompt:            prompt,
		MaxOutputTokens:   titleMaxOutputTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Generating chat title failed", "chatID", chatID, logger.Err(err))
		return
	}

	title := RemoveMarkdown(text)
	if title == "" {
		return
	}
	if err := c.chatRepo.UpdateTitle(ctx, chatID, title); err != nil {
		slog.ErrorContext(ctx, "Saving chat title failed", "chatID", chatID, logger.Err(err))
		return
	}
	slog.InfoContext(ctx, "Chat title generated", "chatID", chatID, "title", title)
}

func (c *chatService) AddMessage(ctx context.Context, req domain.AddMessageRequest) error {
	msg := domain.Message{ID: req.ID, ChatID: req.ChatID, Role: req.Role, Text: req.Text}
	if err := c.messageRepo.Save(ctx, msg); err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	return nil
}

// StreamMessage answers with the default model, emitting every chunk and
// appending it to the stored answer. History is only sent along when the
// client referenced a previous message and the prompt carries no video.
func (c *chatService) StreamMessage(ctx context.Context, req domain.StreamMessageRequest, emit EmitFunc) error {
	youtubeURL := ExtractYouTubeURL(req.Prompt)

	var history []domain.HistoryEntry
	if req.LastMessage != nil && youtubeURL == "" {
		history = req.History
	}

	if err := c.saveExchange(ctx, req.ChatID, &req.UserMessageID, req.SystemMessageID, req.Prompt); err != nil {
		return c.emitFailure(err, domain.StreamErrorMessage, emit)
	}

	modelReq := domain.ModelRequest{
		Model:   c.models.Chat,
		History: history,
		Prompt:  req.Prompt,
		FileURI: youtubeURL,
	}

	emitted := false
	for text, err := range c.provider.StreamText(ctx, modelReq) {
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "Streaming reply failed", "chatID", req.ChatID, logger.Err(err))
			return c.emitAndStore(ctx, req.SystemMessageID, domain.StreamErrorMessage, emit)
		}
		if err := c.emitAndStore(ctx, req.SystemMessageID, text, emit); err != nil {
			return err
		}
		emitted = true
	}

	if !emitted && ctx.Err() == nil {
		return c.emitAndStore(ctx, req.SystemMessageID, domain.StreamErrorMessage, emit)
	}
	return nil
}

// StreamAgentMessage answers as one persona agent. The reply is produced in
// one piece and emitted as a single event.
func (c *chatService) StreamAgentMessage(ctx context.Context, userID int64, req domain.StreamAgentMessageRequest, emit EmitFunc) error {
	agent := req.Agent

	modelReq := domain.ModelRequest{
		Model:             c.models.ForSelectedAI(req.SelectedAI),
		SystemInstruction: agentSystemPrompt(c.userMemory(ctx, userID), agent),
		History:           req.History,
		Prompt:            req.Prompt,
		FileURI:           ExtractYouTubeURL(req.Prompt),
	}

	if err := c.saveExchange(ctx, req.ChatID, req.UserMessageID, req.SystemMessageID, req.Prompt); err != nil {
		return c.emitFailure(err, AppendAgentHeader(agentErrorMessage(agent), agent.Name), emit)
	}

	reply, err := c.agentReply(ctx, modelReq, req.TalkMore)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.ErrorContext(ctx, "Generating agent reply failed", "chatID", req.ChatID, "agent", agent.Name, logger.Err(err))
		reply = agentErrorMessage(agent)
	}
	if strings.Contains(reply, thoughtMarker) {
		reply = agentErrorMessage(agent)
	}
	reply = AppendAgentHeader(reply, agent.Name)

	if ctx.Err() != nil {
		return nil
	}
	return c.emitAndStore(ctx, req.SystemMessageID, reply, emit)
}

// agentReply asks the model once more when the first answer is empty.
func (c *chatService) agentReply(ctx context.Context, req domain.ModelRequest, talkMore bool) (string, error) {
	reply, err := c.provider.GenerateText(ctx, req)
	if err != nil {
		return "", err
	}
	if reply == "" {
		if reply, err = c.provider.GenerateText(ctx, req); err != nil {
			return "", err
		}
	}
	if reply == "" {
		return domain.StreamErrorMessage, nil
	}
	if !talkMore {
		reply = TruncateMessage(reply)
	}
	return reply, nil
}

func (c *chatService) userMemory(ctx context.Context, userID int64) string {
	mem, err := c.memoryRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "Fetching user memory failed", logger.Err(err))
		}
		return domain.NoMemoryText
	}
	return StripMarkdownFence(mem.Memory)
}

func (c *chatService) saveExchange(ctx context.Context, chatID string, userMessageID *string, systemMessageID, prompt string) error {
	if userMessageID != nil {
		user := domain.Message{ID: *userMessageID, ChatID: chatID, Role: domain.RoleUser, Text: prompt}
		if err := c.messageRepo.Save(ctx, user); err != nil {
			return fmt.Errorf("saving user message: %w", err)
		}
	}

	system := domain.Message{ID: systemMessageID, ChatID: chatID, Role: domain.RoleSystem}
	if err := c.messageRepo.Save(ctx, system); err != nil {
		return fmt.Errorf("saving system message: %w", err)
	}
	return nil
}

// emitFailure tells the client that the exchange could not be stored. The
// stream is already open, so the failure travels as a regular payload.
func (c *chatService) emitFailure(err error, text string, emit EmitFunc) error {
	if emitErr := emit(text); emitErr != nil {
		return fmt.Errorf("writing event: %w", emitErr)
	}
	return err
}

func (c *chatService) emitAndStore(ctx context.Context, messageID, text string, emit EmitFunc) error {
	if err := c.messageRepo.AppendText(ctx, messageID, text); err != nil {
		slog.WarnContext(ctx, "Appending message text failed", "messageID", messageID, logger.Err(err))
	}
	if err := emit(text); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

func (c *chatService) Chats(ctx context.Context, userID int64) ([]domain.Chat, error) {
	chats, err := c.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	return chats, nil
}

func (c *chatService) Title(ctx context.Context, userID int64, chatID string) (string, error) {
	chat, err := c.chatRepo.GetByID(ctx, userID, chatID)
	if err != nil {
		return "", fmt.Errorf("fetching chat: %w", err)
	}
	return chat.Title, nil
}

func (c *chatService) Messages(ctx context.Context, userID int64, chatID string) ([]domain.Message, error) {
	if _, err := c.chatRepo.GetByID(ctx, userID, chatID); err != nil {
		return nil, fmt.Errorf("fetching chat: %w", err)
	}

	messages, err := c.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

func (c *chatService) DeleteChat(ctx context.Context, userID int64, chatID string) error {
	if err := c.chatRepo.Delete(ctx, userID, chatID); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	return nil
}
