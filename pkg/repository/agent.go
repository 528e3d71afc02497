package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type agentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *agentRepository {
	return &agentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (domain.Agent, error) {
	var agent domain.Agent
	var id int64
	if err := row.Scan(&id, &agent.Name, &agent.Description, &agent.Prompt, &agent.Deleted, &agent.CreatedAt); err != nil {
		return domain.Agent{}, err
	}
	agent.ID = &id
	return agent, nil
}

func (a *agentRepository) Create(ctx context.Context, userID int64, req domain.AgentRequest) (domain.Agent, error) {
	const query = `
		INSERT INTO agent (user_id, name, description, prompt)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, prompt, deleted, created_at
	`

	agent, err := scanAgent(a.db.QueryRowContext(ctx, query, userID, req.Name, req.Description, req.Prompt))
	if err != nil {
		return domain.Agent{}, fmt.Errorf("saving agent: %w", err)
	}

	return agent, nil
}

func (a *agentRepository) Update(ctx context.Context, userID, id int64, req domain.AgentRequest) (domain.Agent, error) {
	const query = `
		UPDATE agent
		SET name = $3, description = $4, prompt = $5
		WHERE id = $1 AND user_id = $2
		RETURNING id, name, description, prompt, deleted, created_at
	`

	agent, err := scanAgent(a.db.QueryRowContext(ctx, query, id, userID, req.Name, req.Description, req.Prompt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agent{}, domain.ErrNotFound
		}
		return domain.Agent{}, fmt.Errorf("updating agent: %w", err)
	}

	return agent, nil
}

// Delete marks the agent deleted.
func (a *agentRepository) Delete(ctx context.Context, userID, id int64) error {
	const query = `
		UPDATE agent
		SET deleted = TRUE
		WHERE id = $1 AND user_id = $2
	`

	if _, err := a.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}

	return nil
}

func (a *agentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Agent, error) {
	const query = `
		SELECT id, name, description, prompt, deleted, created_at
		FROM agent
		WHERE user_id = $1 AND NOT deleted
		ORDER BY created_at DESC
	`

	rows, err := a.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying agents: %w", err)
	}
	defer rows.Close()

	agents := []domain.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		agents = append(agents, agent)
	}

	return agents, rows.Err()
}
