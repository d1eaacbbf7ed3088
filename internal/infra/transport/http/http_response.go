package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkrupp/publishing/internal/domain"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// WriteJSON encodes body as the JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	//nolint:wrapcheck
	return json.NewEncoder(w).Encode(body)
}

// WriteError answers with an ErrorResponse. An empty message falls back to the status text.
func WriteError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}

	_ = WriteJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// StatusFromError maps the domain error taxonomy to HTTP status codes.
// Anything outside the taxonomy is a 500.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the response for err. The reason carried by a
// domain.ReasonError becomes the message; internal errors never leak theirs.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFromError(err)

	var message string
	if status != http.StatusInternalServerError {
		message, _ = domain.Reason(err)
	}

	WriteError(w, status, message)
}
