package store

import (
	"slices"
	"sync"
)

type EventKind int

const (
	EventChatAdded EventKind = iota
	EventChatRemoved
	EventChatTitle
	EventChatsReplaced
	EventMessageAdded
	EventMessageAppended
	EventMessageReplaced
	EventMessagesReplaced
	EventStreaming
	EventTyping
)

func (k EventKind) String() string {
	switch k {
	case EventChatAdded:
		return "chat_added"
	case EventChatRemoved:
		return "chat_removed"
	case EventChatTitle:
		return "chat_title"
	case EventChatsReplaced:
		return "chats_replaced"
	case EventMessageAdded:
		return "message_added"
	case EventMessageAppended:
		return "message_appended"
	case EventMessageReplaced:
		return "message_replaced"
	case EventMessagesReplaced:
		return "messages_replaced"
	case EventStreaming:
		return "streaming"
	case EventTyping:
		return "typing"
	default:
		return "unknown"
	}
}

// Event describes one store mutation. Text carries the appended delta for
// EventMessageAppended and the full text for added or replaced messages.
type Event struct {
	Kind      EventKind
	ChatID    string
	MessageID string
	Text      string
	Streaming bool
}

type subscribers struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(Event)
}

func newSubscribers() *subscribers {
	return &subscribers{fns: make(map[int]func(Event))}
}

func (s *subscribers) add(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

// publish runs subscribers on the caller's goroutine, outside the store lock,
// so a subscriber may read the store.
func (s *subscribers) publish(e Event) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
