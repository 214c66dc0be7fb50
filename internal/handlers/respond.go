package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ignitecall/ignitecall/internal/scheduling"
)

type errorResponse struct {
	Message string                      `json:"message"`
	Errors  []scheduling.FieldViolation `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Validation
// details are returned to the caller; upstream failures are logged and hidden.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validation *scheduling.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "validation failed",
			Errors:  validation.Violations,
		})
		return
	}

	var notFound *scheduling.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: notFound.Error()})
		return
	}

	if errors.Is(err, scheduling.ErrPastDate) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}

	var conflict *scheduling.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, errorResponse{Message: conflict.Error()})
		return
	}

	logger.Error("request failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
}
