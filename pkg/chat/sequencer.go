package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
	"github.com/dskvich/memi-chat/pkg/sse"
	"github.com/dskvich/memi-chat/pkg/store"
)

type StreamAPI interface {
	StreamMessage(ctx context.Context, req domain.StreamMessageRequest) (io.ReadCloser, error)
	StreamAgentMessage(ctx context.Context, req domain.StreamAgentMessageRequest) (io.ReadCloser, error)
}

// writeGuard serializes stream writes with aborts. A write under an aborted
// token is dropped.
type writeGuard struct {
	mu sync.Mutex
}

func (g *writeGuard) do(token *store.Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token.Aborted() {
		return false
	}
	fn()
	return true
}

// Exchange is one user prompt and everything needed to answer it.
type Exchange struct {
	ChatID          string
	Prompt          string
	UserMessageID   string
	SystemMessageID string
	History         []domain.HistoryEntry
	LastMessage     *domain.LastMessage

	// ChatCreated is false when registering a new chat on the backend
	// failed; streamed output is then rejected.
	ChatCreated bool
	Token       *store.Token

	Agents     []domain.Agent
	TalkMore   bool
	SelectedAI string
}

// Sequencer runs the turns of an exchange one after another and feeds the
// streamed fragments into the chat store.
type Sequencer struct {
	api   StreamAPI
	chats *store.ChatStore
	guard *writeGuard
	rnd   RandomSource
	newID func() string
}

func newSequencer(api StreamAPI, chats *store.ChatStore, guard *writeGuard, rnd RandomSource, newID func() string) *Sequencer {
	return &Sequencer{
		api:   api,
		chats: chats,
		guard: guard,
		rnd:   rnd,
		newID: newID,
	}
}

// Run answers ex with the default model when no agents are selected, and
// with one turn per expanded agent otherwise. The streaming flag is left to
// the owner of ex.Token.
func (s *Sequencer) Run(ex Exchange) {
	if len(ex.Agents) == 0 {
		s.runSingle(ex)
		return
	}
	s.runGroup(ex)
}

func (s *Sequencer) runSingle(ex Exchange) {
	if !s.chats.IsStreaming(ex.ChatID) || ex.Token.Aborted() {
		return
	}

	body, err := s.api.StreamMessage(ex.Token.Context(), domain.StreamMessageRequest{
		Prompt:          ex.Prompt,
		ChatID:          ex.ChatID,
		UserMessageID:   ex.UserMessageID,
		SystemMessageID: ex.SystemMessageID,
		History:         ex.History,
		LastMessage:     ex.LastMessage,
	})
	s.deliver(ex, ex.SystemMessageID, body, err)
}

func (s *Sequencer) runGroup(ex Exchange) {
	turns := ExpandAgents(ex.Agents, s.rnd)

	for i, agent := range turns {
		s.chats.SetTypingAnimation(TypingLabel(agent))

		if !s.chats.IsStreaming(ex.ChatID) || ex.Token.Aborted() {
			slog.Info("Stopping agent turns", "chatID", ex.ChatID, "turn", i, "turns", len(turns))
			return
		}

		req := domain.StreamAgentMessageRequest{
			Prompt:          ex.Prompt,
			ChatID:          ex.ChatID,
			SystemMessageID: ex.SystemMessageID,
			History:         ex.History,
			LastMessage:     ex.LastMessage,
			Agent:           agent,
			TalkMore:        ex.TalkMore,
			SelectedAI:      ex.SelectedAI,
		}

		if i == 0 {
			userMessageID := ex.UserMessageID
			req.UserMessageID = &userMessageID
		} else {
			req.SystemMessageID = s.newID()
			placeholder := domain.Message{
				ID:     req.SystemMessageID,
				ChatID: ex.ChatID,
				Role:   domain.RoleSystem,
			}
			if !s.guard.do(ex.Token, func() { s.chats.AddMessage(placeholder) }) {
				return
			}
		}

		body, err := s.api.StreamAgentMessage(ex.Token.Context(), req)
		s.deliver(ex, req.SystemMessageID, body, err)
	}
}

// deliver validates a stream result and drains it into messageID. A failed
// result replaces the message text with the retry string unless the token
// was aborted.
func (s *Sequencer) deliver(ex Exchange, messageID string, body io.ReadCloser, err error) {
	if err == nil && body != nil && ex.ChatCreated {
		s.consume(ex, messageID, body)
		return
	}
	if body != nil {
		body.Close()
	}
	if ex.Token.Aborted() {
		return
	}

	if err == nil && !ex.ChatCreated {
		err = errors.New("chat was not created")
	}
	slog.Warn("Streaming message failed", "chatID", ex.ChatID, "messageID", messageID, logger.Err(err))
	s.guard.do(ex.Token, func() {
		s.chats.UpdateMessageText(ex.ChatID, messageID, domain.RetryMessage)
	})
}

func (s *Sequencer) consume(ex Exchange, messageID string, body io.ReadCloser) {
	defer body.Close()

	dec := sse.NewDecoder(body)
	for !ex.Token.Aborted() {
		payload, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			if ex.Token.Aborted() {
				return
			}
			slog.Warn("Reading message stream failed", "chatID", ex.ChatID, "messageID", messageID, logger.Err(err))
			s.guard.do(ex.Token, func() {
				if msg, ok := s.chats.Message(ex.ChatID, messageID); ok && msg.Text == "" {
					s.chats.UpdateMessageText(ex.ChatID, messageID, domain.RetryMessage)
				}
			})
			return
		}

		s.guard.do(ex.Token, func() {
			s.chats.AddTextToMessage(ex.ChatID, messageID, payload)
		})
	}
}
