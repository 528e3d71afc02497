// Package chat drives one user prompt through the streaming pipeline:
// optimistic local messages, the backend stream of each turn, cancellation
// and the background follow-ups once the answer is complete.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
	"github.com/dskvich/memi-chat/pkg/store"
)

const backgroundTimeout = 30 * time.Second

// API is the backend as seen by the client pipeline.
type API interface {
	StreamAPI

	CreateChat(ctx context.Context, prompt, chatID string) bool
	AddChatMessage(ctx context.Context, msg domain.AddMessageRequest) bool
	GetChatTitle(ctx context.Context, chatID string) (string, error)
	GetChats(ctx context.Context) ([]domain.Chat, error)
	GetChatMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	DeleteChat(ctx context.Context, chatID string) bool
	UpdateMemory(ctx context.Context, history []domain.HistoryEntry) error
}

// Navigator is notified when a send opens a new chat.
type Navigator interface {
	Navigate(chatID string)
}

type Option func(*Service)

func WithRandomSource(rnd RandomSource) Option {
	return func(s *Service) { s.rnd = rnd }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithNavigator(nav Navigator) Option {
	return func(s *Service) { s.nav = nav }
}

// WithTitleDelay postpones the title fetch after a completed exchange, giving
// the backend time to generate it.
func WithTitleDelay(d time.Duration) Option {
	return func(s *Service) { s.titleDelay = d }
}

type Service struct {
	api    API
	chats  *store.ChatStore
	agents *store.AgentStore
	aborts *store.AbortRegistry

	nav        Navigator
	rnd        RandomSource
	newID      func() string
	titleDelay time.Duration

	guard *writeGuard
	seq   *Sequencer
	bg    sync.WaitGroup
}

func NewService(
	api API,
	chats *store.ChatStore,
	agents *store.AgentStore,
	aborts *store.AbortRegistry,
	opts ...Option,
) *Service {
	s := &Service{
		api:    api,
		chats:  chats,
		agents: agents,
		aborts: aborts,
		rnd:    globalRand{},
		newID:  func() string { return uuid.NewString() },
		guard:  &writeGuard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seq = newSequencer(api, chats, s.guard, s.rnd, s.newID)

	return s
}

// HandleSendMessage sends text to chatID, or to a new chat when chatID is
// empty, and blocks until every turn finished or the stream was aborted.
// It returns the id of the chat the message went to.
func (s *Service) HandleSendMessage(ctx context.Context, chatID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return chatID, domain.ErrEmptyPrompt
	}

	isNewChat := chatID == ""
	if isNewChat {
		chatID = s.newID()
	}
	if !s.chats.TryStartStreaming(chatID) {
		return chatID, domain.ErrAlreadyStreaming
	}

	if isNewChat {
		s.chats.AddChat(domain.Chat{ID: chatID, Title: domain.NewChatTitle})
	}

	userMessageID, systemMessageID := s.newID(), s.newID()
	s.chats.AddMessage(domain.Message{ID: userMessageID, ChatID: chatID, Role: domain.RoleUser, Text: text})
	s.chats.SetTypingAnimation(domain.TypingSmile)
	s.chats.AddMessage(domain.Message{ID: systemMessageID, ChatID: chatID, Role: domain.RoleSystem})

	chatCreated := true
	if isNewChat {
		if s.nav != nil {
			s.nav.Navigate(chatID)
		}
		chatCreated = s.api.CreateChat(ctx, text, chatID)
	}

	history, lastMessage := TransformHistory(s.chats.Last50Messages(chatID))

	token := store.NewToken(ctx)
	s.aborts.Set(chatID, token)

	slog.InfoContext(ctx, "Sending message", "chatID", chatID, "newChat", isNewChat, "historyLen", len(history))

	s.seq.Run(Exchange{
		ChatID:          chatID,
		Prompt:          text,
		UserMessageID:   userMessageID,
		SystemMessageID: systemMessageID,
		History:         history,
		LastMessage:     lastMessage,
		ChatCreated:     chatCreated,
		Token:           token,
		Agents:          s.agents.SelectedAgents(),
		TalkMore:        s.agents.TalkMore(),
		SelectedAI:      s.agents.SelectedAI(),
	})

	s.finishSession(chatID, token)
	s.chats.SetTypingAnimation(domain.TypingSmile)

	s.startBackground(ctx, chatID, history)

	return chatID, nil
}

// finishSession ends the session of token. The streaming flag is cleared only
// while token is still registered: after an abort the flag may already belong
// to a newer send.
func (s *Service) finishSession(chatID string, token *store.Token) {
	s.guard.mu.Lock()
	if s.aborts.RemoveIf(chatID, token) {
		s.chats.SetStreaming(chatID, false)
	}
	s.guard.mu.Unlock()

	token.Abort()
}

// AbortStream cancels the running stream of chatID. An empty answer
// placeholder is marked as aborted. It must not be called from a store
// subscriber.
func (s *Service) AbortStream(chatID string) {
	s.guard.mu.Lock()
	defer s.guard.mu.Unlock()

	if token, ok := s.aborts.Get(chatID); ok {
		token.Abort()
		s.aborts.Remove(chatID)
	}
	s.chats.SetStreaming(chatID, false)

	if msg, ok := s.chats.LastSystemMessage(chatID); ok && msg.Text == "" {
		s.chats.UpdateMessageText(chatID, msg.ID, domain.AbortedMessage)
	}

	slog.Info("Stream aborted", "chatID", chatID)
}

// Wait blocks until the background tasks of completed exchanges are done.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) startBackground(ctx context.Context, chatID string, history []domain.HistoryEntry) {
	ctx = context.WithoutCancel(ctx)

	s.bg.Add(2)
	go func() {
		defer s.bg.Done()
		s.updateChatTitle(ctx, chatID)
	}()
	go func() {
		defer s.bg.Done()
		s.updateMemory(ctx, history)
	}()
}

func (s *Service) updateChatTitle(ctx context.Context, chatID string) {
	ctx, cancel := context.WithTimeout(ctx, s.titleDelay+backgroundTimeout)
	defer cancel()

	if s.titleDelay > 0 {
		select {
		case <-time.After(s.titleDelay):
		case <-ctx.Done():
			return
		}
	}

	chat, ok := s.chats.Chat(chatID)
	if !ok || chat.Title != domain.NewChatTitle {
		return
	}

	title, err := s.api.GetChatTitle(ctx, chatID)
	if err != nil {
		slog.WarnContext(ctx, "Fetching chat title failed", "chatID", chatID, logger.Err(err))
		return
	}
	if title != "" {
		s.chats.SetChatTitle(chatID, title)
	}
}

func (s *Service) updateMemory(ctx context.Context, history []domain.HistoryEntry) {
	ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()

	if err := s.api.UpdateMemory(ctx, history); err != nil {
		slog.WarnContext(ctx, "Updating memory failed", logger.Err(err))
	}
}
