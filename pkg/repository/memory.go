package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type memoryRepository struct {
	db *sql.DB
}

func NewMemoryRepository(db *sql.DB) *memoryRepository {
	return &memoryRepository{db: db}
}

func (m *memoryRepository) GetByUserID(ctx context.Context, userID int64) (domain.UserMemory, error) {
	const query = `
		SELECT id, user_id, memory, created_at, updated_at
		FROM user_memories
		WHERE user_id = $1
	`

	var mem domain.UserMemory
	err := m.db.QueryRowContext(ctx, query, userID).
		Scan(&mem.ID, &mem.UserID, &mem.Memory, &mem.CreatedAt, &mem.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserMemory{}, domain.ErrNotFound
		}
		return domain.UserMemory{}, fmt.Errorf("fetching memory by user id: %w", err)
	}

	return mem, nil
}

func (m *memoryRepository) Save(ctx context.Context, userID int64, memory string) error {
	const query = `
		INSERT INTO user_memories (user_id, memory)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET
			memory = EXCLUDED.memory,
			updated_at = NOW()
	`

	if _, err := m.db.ExecContext(ctx, query, userID, memory); err != nil {
		return fmt.Errorf("saving memory: %w", err)
	}

	return nil
}
