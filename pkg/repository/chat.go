package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type chatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *chatRepository {
	return &chatRepository{db: db}
}

func (c *chatRepository) Create(ctx context.Context, userID int64, chat domain.Chat) error {
	const query = `
		INSERT INTO chat (id, user_id, title)
		VALUES ($1, $2, $3)
	`

	if _, err := c.db.ExecContext(ctx, query, chat.ID, userID, chat.Title); err != nil {
		return fmt.Errorf("saving chat: %w", err)
	}

	return nil
}

func (c *chatRepository) UpdateTitle(ctx context.Context, chatID, title string) error {
	const query = `
		UPDATE chat
		SET title = $2
		WHERE id = $1
	`

	if _, err := c.db.ExecContext(ctx, query, chatID, title); err != nil {
		return fmt.Errorf("updating chat title: %w", err)
	}

	return nil
}

func (c *chatRepository) GetByID(ctx context.Context, userID int64, chatID string) (domain.Chat, error) {
	const query = `
		SELECT id, title, created_at
		FROM chat
		WHERE id = $1 AND user_id = $2
	`

	var chat domain.Chat
	err := c.db.QueryRowContext(ctx, query, chatID, userID).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Chat{}, domain.ErrNotFound
		}
		return domain.Chat{}, fmt.Errorf("fetching chat by id: %w", err)
	}

	return chat, nil
}

// ListByUser returns the user's chats oldest first.
func (c *chatRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Chat, error) {
	const query = `
		SELECT id, title, created_at
		FROM chat
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	chats := []domain.Chat{}
	for rows.Next() {
		var chat domain.Chat
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

// Delete removes the chat and, by cascade, its messages.
func (c *chatRepository) Delete(ctx context.Context, userID int64, chatID string) error {
	const query = `
		DELETE FROM chat
		WHERE id = $1 AND user_id = $2
	`

	if _, err := c.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}

	return nil
}
