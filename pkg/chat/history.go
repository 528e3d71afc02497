package chat

import (
	"github.com/dskvich/memi-chat/pkg/domain"
)

// TransformHistory converts the local message window into model history.
// Messages before the first user message and messages with empty text are
// dropped; user turns keep their role and every other role becomes "model".
// lastMessage is the third message from the end of the window, which the
// backend inspects for attachment references.
func TransformHistory(messages []domain.Message) (history []domain.HistoryEntry, lastMessage *domain.LastMessage) {
	if len(messages) >= 3 {
		m := messages[len(messages)-3]
		lastMessage = &domain.LastMessage{ID: m.ID, Text: m.Text}
	}

	history = []domain.HistoryEntry{}
	foundUser := false
	for _, m := range messages {
		if !foundUser && m.Role == domain.RoleUser {
			foundUser = true
		}
		if !foundUser || m.Text == "" {
			continue
		}

		role := domain.RoleModel
		if m.Role == domain.RoleUser {
			role = domain.RoleUser
		}
		history = append(history, domain.NewHistoryEntry(role, m.Text))
	}

	return history, lastMessage
}
