package store

import (
	"github.com/dskvich/memi-chat/pkg/domain"
)

// Snapshot is the persistable part of a ChatStore. Streaming flags and the
// typing label are transient and not included.
type Snapshot struct {
	Chats    []domain.Chat
	Messages map[string][]domain.Message
}

func (s *ChatStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Chats:    make([]domain.Chat, 0, len(s.chatOrder)),
		Messages: make(map[string][]domain.Message, len(s.messages)),
	}
	for _, id := range s.chatOrder {
		snap.Chats = append(snap.Chats, s.chats[id])
	}
	for chatID, msgs := range s.messages {
		snap.Messages[chatID] = msgs.list()
	}
	return snap
}

// Restore replaces the store content with snap.
func (s *ChatStore) Restore(snap Snapshot) {
	s.SetChats(snap.Chats)
	for chatID, msgs := range snap.Messages {
		if _, ok := s.Chat(chatID); ok {
			s.SetMessages(chatID, msgs)
		}
	}
}
