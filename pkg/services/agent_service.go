package services

import (
	"context"
	"fmt"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type AgentRepository interface {
	Create(ctx context.Context, userID int64, req domain.AgentRequest) (domain.Agent, error)
	Update(ctx context.Context, userID, id int64, req domain.AgentRequest) (domain.Agent, error)
	Delete(ctx context.Context, userID, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Agent, error)
}

type agentService struct {
	provider  ModelProvider
	agentRepo AgentRepository
	model     string
}

func NewAgentService(provider ModelProvider, agentRepo AgentRepository, model string) *agentService {
	return &agentService{
		provider:  provider,
		agentRepo: agentRepo,
		model:     model,
	}
}

// Agents lists the user's agents that are not deleted, newest first.
func (a *agentService) Agents(ctx context.Context, userID int64) ([]domain.Agent, error) {
	agents, err := a.agentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return agents, nil
}

func (a *agentService) CreateAgent(ctx context.Context, userID int64, req domain.AgentRequest) (domain.Agent, error) {
	agent, err := a.agentRepo.Create(ctx, userID, req)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("creating agent: %w", err)
	}
	return agent, nil
}

func (a *agentService) UpdateAgent(ctx context.Context, userID, id int64, req domain.AgentRequest) (domain.Agent, error) {
	agent, err := a.agentRepo.Update(ctx, userID, id, req)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("updating agent %d: %w", id, err)
	}
	return agent, nil
}

// DeleteAgent marks the agent deleted. Chats keep referring to it by name.
func (a *agentService) DeleteAgent(ctx context.Context, userID, id int64) error {
	if err := a.agentRepo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting agent %d: %w", id, err)
	}
	return nil
}

// GeneratePersona expands a short description into an agent persona.
func (a *agentService) GeneratePersona(ctx context.Context, persona string) (string, error) {
	text, err := a.provider.GenerateText(ctx, domain.ModelRequest{
		Model:             a.model,
		SystemInstruction: generatePersonaPrompt,
		Prompt:            persona,
	})
	if err != nil {
		return "", fmt.Errorf("generating persona: %w", err)
	}
	return RemoveMarkdown(text), nil
}
