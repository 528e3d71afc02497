package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
)

// memoryRefreshInterval is the minimum age of a memory before it is regenerated.
const memoryRefreshInterval = 5 * time.Minute

type memoryService struct {
	provider   ModelProvider
	memoryRepo MemoryRepository
	model      string
	now        func() time.Time
}

func NewMemoryService(provider ModelProvider, memoryRepo MemoryRepository, model string) *memoryService {
	return &memoryService{
		provider:   provider,
		memoryRepo: memoryRepo,
		model:      model,
		now:        time.Now,
	}
}

// Memory returns the stored memory of the user, or false when there is none.
func (m *memoryService) Memory(ctx context.Context, userID int64) (string, bool, error) {
	mem, err := m.memoryRepo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetching memory: %w", err)
	}
	return mem.Memory, true, nil
}

func (m *memoryService) ChangeMemory(ctx context.Context, userID int64, memory string) error {
	if err := m.memoryRepo.Save(ctx, userID, memory); err != nil {
		return fmt.Errorf("saving memory: %w", err)
	}
	return nil
}

// UpdateMemory rebuilds the user memory from the user turns of history.
// A memory updated less than memoryRefreshInterval ago is kept as is.
func (m *memoryService) UpdateMemory(ctx context.Context, userID int64, history []domain.HistoryEntry) error {
	current := domain.NoMemoryText

	mem, err := m.memoryRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if m.now().Sub(mem.UpdatedAt) < memoryRefreshInterval {
			slog.DebugContext(ctx, "Memory is fresh, skipping update", "userID", userID)
			return nil
		}
		current = mem.Memory
	case errors.Is(err, domain.ErrNotFound):
	default:
		slog.WarnContext(ctx, "Fetching user memory failed", logger.Err(err))
	}

	userTurns := lo.Filter(history, func(h domain.HistoryEntry, _ int) bool {
		return h.Role == domain.RoleUser
	})
	if len(userTurns) == 0 {
		return nil
	}
	last := userTurns[len(userTurns)-1]

	text, err := m.provider.GenerateText(ctx, domain.ModelRequest{
		Model:             m.model,
		SystemInstruction: memorySystemPrompt(current),
		History:           userTurns[:len(userTurns)-1],
		Prompt:            last.Text(),
	})
	if err != nil {
		return fmt.Errorf("generating memory: %w", err)
	}

	if err := m.memoryRepo.Save(ctx, userID, text); err != nil {
		return fmt.Errorf("saving memory: %w", err)
	}
	return nil
}
