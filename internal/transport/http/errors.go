package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"flag-quiz-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGameFinished),
		errors.Is(err, domain.ErrGameNotFinished),
		errors.Is(err, domain.ErrQuestionOutOfOrder),
		errors.Is(err, domain.ErrScoreAlreadySaved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMailerNotConfigured), errors.Is(err, domain.ErrCountriesUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError hides internal error details behind a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = "Internal server error"
	}
	writeJSON(w, status, resp)
}
