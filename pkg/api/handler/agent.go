package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dskvich/memi-chat/pkg/api/response"
	"github.com/dskvich/memi-chat/pkg/domain"
)

type AgentService interface {
	Agents(ctx context.Context, userID int64) ([]domain.Agent, error)
	CreateAgent(ctx context.Context, userID int64, req domain.AgentRequest) (domain.Agent, error)
	UpdateAgent(ctx context.Context, userID, id int64, req domain.AgentRequest) (domain.Agent, error)
	DeleteAgent(ctx context.Context, userID, id int64) error
	GeneratePersona(ctx context.Context, persona string) (string, error)
}

type agent struct {
	service AgentService
	writer  response.JSONResponseWriter
}

func NewAgent(service AgentService) *agent {
	return &agent{
		service: service,
		writer:  response.JSONResponseWriter{},
	}
}

func agentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid agent id", domain.ErrInvalidRequest)
	}
	return id, nil
}

func (a *agent) Agents(w http.ResponseWriter, r *http.Request) {
	agents, err := a.service.Agents(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	a.writer.WriteSuccessResponse(w, response.Fields{"agents": agents})
}

func (a *agent) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req domain.AgentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, a.writer, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	created, err := a.service.CreateAgent(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	a.writer.WriteSuccessResponse(w, response.Fields{"agent": created})
}

func (a *agent) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, err := agentID(r)
	if err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	var req domain.AgentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, a.writer, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	updated, err := a.service.UpdateAgent(r.Context(), userID(r), id, req)
	if err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	a.writer.WriteSuccessResponse(w, response.Fields{"agent": updated})
}

func (a *agent) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, err := agentID(r)
	if err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	if err := a.service.DeleteAgent(r.Context(), userID(r), id); err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	a.writer.WriteSuccessResponse(w, nil)
}

func (a *agent) GeneratePersona(w http.ResponseWriter, r *http.Request) {
	var req domain.GeneratePersonaRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, a.writer, err)
		return
	}
	if strings.TrimSpace(req.Persona) == "" {
		writeError(w, r, a.writer, fmt.Errorf("%w: persona is required", domain.ErrInvalidRequest))
		return
	}

	persona, err := a.service.GeneratePersona(r.Context(), req.Persona)
	if err != nil {
		writeError(w, r, a.writer, err)
		return
	}

	a.writer.WriteSuccessResponse(w, response.Fields{"persona": persona})
}
