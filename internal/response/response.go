// Package response writes the JSON envelope every endpoint answers with:
//
//	{"code": 200, "message": "User details fetched successfully", "data": {...}}
//
// The HTTP status always equals "code". Clients never get a raw error page
// or an internal error string, only the canned message for the operation.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/social-auth/internal/apperror"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes an envelope with the given status, message and optional data.
//
// Headers and status must be set before the body: once Encode writes, any
// later header change is silently ignored.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Code: status, Message: message, Data: data}); err != nil {
		// Headers are already sent; all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// StatusFor maps an error to the HTTP status it should produce.
//
// Conflicts answer 400, not 409: a duplicate email at registration is
// reported as a bad request.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Error maps err to a status and writes it.
//
// Typed application errors carry their own client-facing message. Anything
// else is an upstream failure (database, media host, a bug) and is answered
// with 500 and internalMessage; the raw error is never sent to the client.
func Error(w http.ResponseWriter, err error, internalMessage string) {
	var appErr *apperror.AppError
	status := StatusFor(err)

	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		JSON(w, status, appErr.Message, nil)
		return
	}

	JSON(w, http.StatusInternalServerError, internalMessage, nil)
}
