package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/memi-chat/pkg/domain"
)

func seedMessage(s *ChatStore, chatID, id string, role domain.Role, text string) {
	s.AddMessage(domain.Message{ID: id, ChatID: chatID, Role: role, Text: text})
}

func TestAddTextToMessage(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
	}{
		{name: "no fragments", fragments: nil},
		{name: "single", fragments: []string{"Hello"}},
		{name: "streamed", fragments: []string{"Hel", "lo", ", ", "wor", "ld", ""}},
		{name: "multi line and unicode", fragments: []string{"línea\n", "二", "\n🙂"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewChatStore()
			seedMessage(s, "c1", "m1", domain.RoleSystem, "")

			for _, f := range tt.fragments {
				s.AddTextToMessage("c1", "m1", f)
			}

			msg, ok := s.Message("c1", "m1")
			require.True(t, ok)
			assert.Equal(t, strings.Join(tt.fragments, ""), msg.Text)
		})
	}
}

func TestAddTextToMissingMessageIsNoop(t *testing.T) {
	s := NewChatStore()
	s.AddChat(domain.Chat{ID: "c1", Title: domain.NewChatTitle})
	seedMessage(s, "c1", "m1", domain.RoleSystem, "kept")
	before := s.Snapshot()

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	s.AddTextToMessage("c1", "missing", "x")
	s.AddTextToMessage("missing-chat", "m1", "x")
	s.UpdateMessageText("c1", "missing", "x")
	s.UpdateMessageText("missing-chat", "m1", "x")

	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, events)
}

func TestAddMessageOverwritesInPlace(t *testing.T) {
	s := NewChatStore()
	seedMessage(s, "c1", "m1", domain.RoleUser, "one")
	seedMessage(s, "c1", "m2", domain.RoleSystem, "two")
	seedMessage(s, "c1", "m1", domain.RoleUser, "uno")

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "uno", msgs[0].Text)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestUpdateMessageText(t *testing.T) {
	s := NewChatStore()
	seedMessage(s, "c1", "m1", domain.RoleSystem, "partial")

	s.UpdateMessageText("c1", "m1", domain.RetryMessage)

	msg, _ := s.Message("c1", "m1")
	assert.Equal(t, domain.RetryMessage, msg.Text)
}

func TestLast50Messages(t *testing.T) {
	s := NewChatStore()
	for i := 0; i < 60; i++ {
		seedMessage(s, "c1", fmt.Sprintf("m%02d", i), domain.RoleUser, fmt.Sprint(i))
	}

	msgs := s.Last50Messages("c1")
	require.Len(t, msgs, HistoryWindow)
	assert.Equal(t, "m10", msgs[0].ID)
	assert.Equal(t, "m59", msgs[49].ID)

	assert.Empty(t, s.Last50Messages("unknown"))
}

func TestLastSystemMessage(t *testing.T) {
	s := NewChatStore()
	_, ok := s.LastSystemMessage("c1")
	assert.False(t, ok)

	seedMessage(s, "c1", "u1", domain.RoleUser, "hi")
	seedMessage(s, "c1", "s1", domain.RoleSystem, "hello")
	seedMessage(s, "c1", "u2", domain.RoleUser, "again")
	seedMessage(s, "c1", "s2", domain.RoleSystem, "")
	seedMessage(s, "c1", "u3", domain.RoleUser, "?")

	msg, ok := s.LastSystemMessage("c1")
	require.True(t, ok)
	assert.Equal(t, "s2", msg.ID)
}

func TestChatEviction(t *testing.T) {
	s := NewChatStore()
	for i := 0; i < MaxChats; i++ {
		id := fmt.Sprintf("chat-%02d", i)
		s.AddChat(domain.Chat{ID: id, Title: id})
		seedMessage(s, id, "m-"+id, domain.RoleUser, "hi")
	}
	require.Len(t, s.Chats(), MaxChats)

	s.AddChat(domain.Chat{ID: "chat-new", Title: domain.NewChatTitle})

	chats := s.Chats()
	require.Len(t, chats, MaxChats)
	_, ok := s.Chat("chat-00")
	assert.False(t, ok)
	assert.Empty(t, s.Messages("chat-00"))
	assert.Equal(t, "chat-01", chats[0].ID)
	assert.Equal(t, "chat-new", chats[MaxChats-1].ID)
	assert.Len(t, s.Messages("chat-01"), 1)
}

func TestAddExistingChatDoesNotEvict(t *testing.T) {
	s := NewChatStore()
	for i := 0; i < MaxChats; i++ {
		s.AddChat(domain.Chat{ID: fmt.Sprint(i)})
	}
	s.AddChat(domain.Chat{ID: "0", Title: "renamed"})

	assert.Len(t, s.Chats(), MaxChats)
	chat, ok := s.Chat("0")
	require.True(t, ok)
	assert.Equal(t, "renamed", chat.Title)
}

func TestDeleteChatCascades(t *testing.T) {
	s := NewChatStore()
	s.AddChat(domain.Chat{ID: "c1"})
	seedMessage(s, "c1", "m1", domain.RoleUser, "hi")
	s.SetStreaming("c1", true)

	s.DeleteChat("c1")

	_, ok := s.Chat("c1")
	assert.False(t, ok)
	assert.Empty(t, s.Messages("c1"))
	assert.False(t, s.IsStreaming("c1"))
}

func TestSetMessages(t *testing.T) {
	s := NewChatStore()
	seedMessage(s, "c1", "old", domain.RoleUser, "old")

	s.SetMessages("c1", []domain.Message{
		{ID: "a", Role: domain.RoleUser, Text: "hi"},
		{ID: "b", Role: domain.RoleSystem, Text: "hello"},
	})

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "c1", msgs[1].ChatID)
}

func TestStreamingFlag(t *testing.T) {
	s := NewChatStore()
	assert.False(t, s.IsStreaming("c1"))

	assert.True(t, s.TryStartStreaming("c1"))
	assert.False(t, s.TryStartStreaming("c1"))
	assert.True(t, s.IsStreaming("c1"))

	s.SetStreaming("c1", false)
	assert.False(t, s.IsStreaming("c1"))
}

func TestSubscribersSeeMutationsSynchronously(t *testing.T) {
	s := NewChatStore()
	seedMessage(s, "c1", "m1", domain.RoleSystem, "")

	var seen []string
	unsubscribe := s.Subscribe(func(e Event) {
		if e.Kind == EventMessageAppended {
			msg, _ := s.Message(e.ChatID, e.MessageID)
			seen = append(seen, msg.Text)
		}
	})

	s.AddTextToMessage("c1", "m1", "Hel")
	s.AddTextToMessage("c1", "m1", "lo")
	assert.Equal(t, []string{"Hel", "Hello"}, seen)

	unsubscribe()
	s.AddTextToMessage("c1", "m1", "!")
	assert.Len(t, seen, 2)
}

func TestSnapshotRestore(t *testing.T) {
	s := NewChatStore()
	s.AddChat(domain.Chat{ID: "c1", Title: "First"})
	s.AddChat(domain.Chat{ID: "c2", Title: "Second"})
	seedMessage(s, "c1", "m1", domain.RoleUser, "hi")
	seedMessage(s, "c1", "m2", domain.RoleSystem, "hello")
	s.SetStreaming("c1", true)

	restored := NewChatStore()
	restored.Restore(s.Snapshot())

	assert.Equal(t, s.Chats(), restored.Chats())
	assert.Equal(t, s.Messages("c1"), restored.Messages("c1"))
	assert.False(t, restored.IsStreaming("c1"))
}
