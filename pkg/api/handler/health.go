package handler

import (
	"context"
	"net/http"

	"github.com/dskvich/memi-chat/pkg/api/response"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type health struct {
	db     Pinger
	writer response.JSONResponseWriter
}

func NewHealth(db Pinger) *health {
	return &health{
		db:     db,
		writer: response.JSONResponseWriter{},
	}
}

func (h *health) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.writer.WriteErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	h.writer.WriteSuccessResponse(w, nil)
}
