// Package handler serves the edge API used by the chat clients.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dskvich/memi-chat/pkg/api/response"
	"github.com/dskvich/memi-chat/pkg/auth"
	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
)

const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func userID(r *http.Request) int64 {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// writeError maps err to a status code and writes the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, writer response.JSONResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writer.WriteErrorResponse(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrEmptyPrompt):
		writer.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, logger.Err(err))
		writer.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}
