package response

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
)

// Fields are the payload keys written next to the envelope message.
type Fields map[string]any

type JSONResponseWriter struct{}

func (j *JSONResponseWriter) WriteSuccessResponse(w http.ResponseWriter, fields Fields) {
	body := Fields{"message": domain.GenericSuccessMessage}
	maps.Copy(body, fields)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding success response", logger.Err(err))
	}
}

func (j *JSONResponseWriter) WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: domain.GenericErrorMessage, Error: message}); err != nil {
		slog.Error("encoding error response", logger.Err(err))
	}
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
