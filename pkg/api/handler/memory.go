package handler

import (
	"context"
	"net/http"

	"github.com/dskvich/memi-chat/pkg/api/response"
	"github.com/dskvich/memi-chat/pkg/domain"
)

type MemoryService interface {
	Memory(ctx context.Context, userID int64) (string, bool, error)
	ChangeMemory(ctx context.Context, userID int64, memory string) error
}

type memory struct {
	service MemoryService
	writer  response.JSONResponseWriter
}

func NewMemory(service MemoryService) *memory {
	return &memory{
		service: service,
		writer:  response.JSONResponseWriter{},
	}
}

// Memory answers with a null memory when nothing is stored for the user.
func (m *memory) Memory(w http.ResponseWriter, r *http.Request) {
	text, ok, err := m.service.Memory(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, m.writer, err)
		return
	}

	var mem *string
	if ok {
		mem = &text
	}
	m.writer.WriteSuccessResponse(w, response.Fields{"memory": mem})
}

func (m *memory) ChangeMemory(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangeMemoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, m.writer, err)
		return
	}

	if err := m.service.ChangeMemory(r.Context(), userID(r), req.Memory); err != nil {
		writeError(w, r, m.writer, err)
		return
	}

	m.writer.WriteSuccessResponse(w, nil)
}
