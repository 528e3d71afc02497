package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dskvich/memi-chat/pkg/domain"
)

func (c *Client) GetAgents(ctx context.Context) ([]domain.Agent, error) {
	var resp struct {
		Agents []domain.Agent `json:"agents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/user/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

// SaveAgent creates a draft agent or updates a saved one.
func (c *Client) SaveAgent(ctx context.Context, agent domain.Agent) (domain.Agent, error) {
	req := domain.AgentRequest{Name: agent.Name, Description: agent.Description, Prompt: agent.Prompt}

	path := "/v1/user/agents/new"
	if agent.Saved() {
		path = fmt.Sprintf("/v1/user/agents/update/%d", *agent.ID)
	}

	var resp struct {
		Agent domain.Agent `json:"agent"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return domain.Agent{}, err
	}
	return resp.Agent, nil
}

func (c *Client) DeleteAgent(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/user/agents/delete/%d", id), nil, nil)
}

func (c *Client) GeneratePersona(ctx context.Context, persona string) (string, error) {
	var resp struct {
		Persona string `json:"persona"`
	}
	req := domain.GeneratePersonaRequest{Persona: persona}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/user/agents/generate/persona", req, &resp); err != nil {
		return "", err
	}
	return resp.Persona, nil
}
