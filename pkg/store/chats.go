// Package store holds the client-side state of the chat pipeline: chats and
// their messages, per-chat streaming flags, cancellation tokens and the agent
// selection. Every mutation is synchronously visible to subscribers.
package store

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/dskvich/memi-chat/pkg/domain"
)

const (
	// MaxChats is the number of chats kept locally; the oldest is evicted beyond it.
	MaxChats = 30

	// HistoryWindow bounds the messages sent to the model as context.
	HistoryWindow = 50
)

type chatMessages struct {
	order []string
	byID  map[string]*domain.Message
}

func newChatMessages() *chatMessages {
	return &chatMessages{byID: make(map[string]*domain.Message)}
}

func (c *chatMessages) list() []domain.Message {
	out := make([]domain.Message, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

type ChatStore struct {
	mu sync.RWMutex

	chatOrder []string
	chats     map[string]domain.Chat
	messages  map[string]*chatMessages
	streaming map[string]bool
	typing    string

	subscribers *subscribers
	now         func() time.Time
}

func NewChatStore() *ChatStore {
	return &ChatStore{
		chats:       make(map[string]domain.Chat),
		messages:    make(map[string]*chatMessages),
		streaming:   make(map[string]bool),
		subscribers: newSubscribers(),
		now:         time.Now,
	}
}

// Subscribe registers fn for every mutation. The returned func unsubscribes.
func (s *ChatStore) Subscribe(fn func(Event)) func() {
	return s.subscribers.add(fn)
}

// AddChat inserts or overwrites a chat. When more than MaxChats remain, the
// oldest chat and its messages are evicted.
func (s *ChatStore) AddChat(chat domain.Chat) {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = s.now()
	}

	s.mu.Lock()
	if _, ok := s.chats[chat.ID]; !ok {
		s.chatOrder = append(s.chatOrder, chat.ID)
	}
	s.chats[chat.ID] = chat

	var evicted []string
	for len(s.chatOrder) > MaxChats {
		oldest := s.chatOrder[0]
		s.removeChatLocked(oldest)
		evicted = append(evicted, oldest)
	}
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventChatAdded, ChatID: chat.ID, Text: chat.Title})
	for _, id := range evicted {
		s.subscribers.publish(Event{Kind: EventChatRemoved, ChatID: id})
	}
}

// SetChats replaces the chat list, keeping messages of chats that remain.
func (s *ChatStore) SetChats(chats []domain.Chat) {
	s.mu.Lock()
	keep := make(map[string]bool, len(chats))
	s.chatOrder = s.chatOrder[:0]
	s.chats = make(map[string]domain.Chat, len(chats))
	for _, c := range chats {
		if _, dup := s.chats[c.ID]; !dup {
			s.chatOrder = append(s.chatOrder, c.ID)
		}
		s.chats[c.ID] = c
		keep[c.ID] = true
	}
	for id := range s.messages {
		if !keep[id] {
			delete(s.messages, id)
		}
	}
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventChatsReplaced})
}

func (s *ChatStore) Chat(chatID string) (domain.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	return chat, ok
}

// Chats returns chats oldest first.
func (s *ChatStore) Chats() []domain.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(s.chatOrder, func(id string, _ int) domain.Chat {
		return s.chats[id]
	})
}

func (s *ChatStore) SetChatTitle(chatID, title string) {
	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if ok {
		chat.Title = title
		s.chats[chatID] = chat
	}
	s.mu.Unlock()

	if ok {
		s.subscribers.publish(Event{Kind: EventChatTitle, ChatID: chatID, Text: title})
	}
}

// DeleteChat removes the chat with its messages and streaming state.
func (s *ChatStore) DeleteChat(chatID string) {
	s.mu.Lock()
	_, ok := s.chats[chatID]
	s.removeChatLocked(chatID)
	s.mu.Unlock()

	if ok {
		s.subscribers.publish(Event{Kind: EventChatRemoved, ChatID: chatID})
	}
}

func (s *ChatStore) removeChatLocked(chatID string) {
	delete(s.chats, chatID)
	delete(s.messages, chatID)
	delete(s.streaming, chatID)
	s.chatOrder = slices.DeleteFunc(s.chatOrder, func(id string) bool { return id == chatID })
}

// AddMessage appends msg to its chat. An existing id is overwritten in place.
func (s *ChatStore) AddMessage(msg domain.Message) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	s.mu.Lock()
	msgs, ok := s.messages[msg.ChatID]
	if !ok {
		msgs = newChatMessages()
		s.messages[msg.ChatID] = msgs
	}
	if _, exists := msgs.byID[msg.ID]; !exists {
		msgs.order = append(msgs.order, msg.ID)
	}
	msgs.byID[msg.ID] = &msg
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventMessageAdded, ChatID: msg.ChatID, MessageID: msg.ID, Text: msg.Text})
}

// AddTextToMessage appends delta to the message text. Unknown chats or
// messages leave the store unchanged; the message may have been deleted
// while its stream was still running.
func (s *ChatStore) AddTextToMessage(chatID, messageID, delta string) {
	s.mu.Lock()
	msg, ok := s.messageLocked(chatID, messageID)
	if ok {
		msg.Text += delta
	}
	s.mu.Unlock()

	if ok {
		s.subscribers.publish(Event{Kind: EventMessageAppended, ChatID: chatID, MessageID: messageID, Text: delta})
	}
}

// UpdateMessageText replaces the message text. Unknown messages are ignored.
func (s *ChatStore) UpdateMessageText(chatID, messageID, text string) {
	s.mu.Lock()
	msg, ok := s.messageLocked(chatID, messageID)
	if ok {
		msg.Text = text
	}
	s.mu.Unlock()

	if ok {
		s.subscribers.publish(Event{Kind: EventMessageReplaced, ChatID: chatID, MessageID: messageID, Text: text})
	}
}

func (s *ChatStore) messageLocked(chatID, messageID string) (*domain.Message, bool) {
	msgs, ok := s.messages[chatID]
	if !ok {
		return nil, false
	}
	msg, ok := msgs.byID[messageID]
	return msg, ok
}

// SetMessages replaces all messages of a chat, e.g. with persisted history.
func (s *ChatStore) SetMessages(chatID string, messages []domain.Message) {
	msgs := newChatMessages()
	for _, m := range messages {
		m.ChatID = chatID
		if _, exists := msgs.byID[m.ID]; !exists {
			msgs.order = append(msgs.order, m.ID)
		}
		msgs.byID[m.ID] = &m
	}

	s.mu.Lock()
	s.messages[chatID] = msgs
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventMessagesReplaced, ChatID: chatID})
}

func (s *ChatStore) Message(chatID, messageID string) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messageLocked(chatID, messageID)
	if !ok {
		return domain.Message{}, false
	}
	return *msg, true
}

// Messages returns the chat's messages in insertion order.
func (s *ChatStore) Messages(chatID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.messages[chatID]
	if !ok {
		return nil
	}
	return msgs.list()
}

// Last50Messages returns the most recent HistoryWindow messages in order.
func (s *ChatStore) Last50Messages(chatID string) []domain.Message {
	msgs := s.Messages(chatID)
	if len(msgs) > HistoryWindow {
		msgs = msgs[len(msgs)-HistoryWindow:]
	}
	return msgs
}

// LastSystemMessage returns the most recent SYSTEM message of the chat.
func (s *ChatStore) LastSystemMessage(chatID string) (domain.Message, bool) {
	msgs := s.Messages(chatID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleSystem {
			return msgs[i], true
		}
	}
	return domain.Message{}, false
}

func (s *ChatStore) SetStreaming(chatID string, streaming bool) {
	s.mu.Lock()
	s.streaming[chatID] = streaming
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventStreaming, ChatID: chatID, Streaming: streaming})
}

func (s *ChatStore) IsStreaming(chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.streaming[chatID]
}

// TryStartStreaming sets the streaming flag unless it is already set.
func (s *ChatStore) TryStartStreaming(chatID string) bool {
	s.mu.Lock()
	if s.streaming[chatID] {
		s.mu.Unlock()
		return false
	}
	s.streaming[chatID] = true
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventStreaming, ChatID: chatID, Streaming: true})
	return true
}

func (s *ChatStore) SetTypingAnimation(label string) {
	s.mu.Lock()
	s.typing = label
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventTyping, Text: label})
}

func (s *ChatStore) TypingAnimation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.typing
}

// Reset drops all state, as on logout.
func (s *ChatStore) Reset() {
	s.mu.Lock()
	s.chatOrder = nil
	s.chats = make(map[string]domain.Chat)
	s.messages = make(map[string]*chatMessages)
	s.streaming = make(map[string]bool)
	s.typing = ""
	s.mu.Unlock()

	s.subscribers.publish(Event{Kind: EventChatsReplaced})
}
