package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (m *messageRepository) Save(ctx context.Context, msg domain.Message) error {
	const query = `
		INSERT INTO chat_message (id, chat_id, role, text)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := m.db.ExecContext(ctx, query, msg.ID, msg.ChatID, string(msg.Role), msg.Text); err != nil {
		return fmt.Errorf("saving message: %w", err)
	}

	return nil
}

// AppendText adds text to the end of the stored message. Unknown ids are ignored.
func (m *messageRepository) AppendText(ctx context.Context, messageID, text string) error {
	const query = `
		UPDATE chat_message
		SET text = text || $2
		WHERE id = $1
	`

	if _, err := m.db.ExecContext(ctx, query, messageID, text); err != nil {
		return fmt.Errorf("appending message text: %w", err)
	}

	return nil
}

func (m *messageRepository) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	const query = `
		SELECT id, chat_id, role, text, created_at
		FROM chat_message
		WHERE chat_id = $1
		ORDER BY created_at, seq
	`

	rows, err := m.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.ChatID, &role, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
