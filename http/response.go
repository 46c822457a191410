package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiratsolutions/fileit"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError logs err and writes the response matching its sentinel.
func HandleError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, fileit.ErrNotFound):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.As(err, &tooLarge):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large")
	case errors.Is(err, fileit.ErrUnsupportedType):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_type", "Only PDF and DOCX documents can be converted")
	case errors.Is(err, fileit.ErrInvalidInput):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, fileit.ErrUnauthorized):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.Is(err, fileit.ErrNotSupported):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusNotImplemented, "not_supported", "Not supported by this server")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes {"Success": message}, the acknowledgement shape
// FileIt clients expect.
func WriteSuccess(w http.ResponseWriter, message string, extra map[string]any) {
	body := map[string]any{"Success": message}
	for k, v := range extra {
		body[k] = v
	}
	if err := WriteJSON(w, http.StatusOK, body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
