// Package handler is the HTTP layer: request decoding and validation,
// session plumbing, and the single place where domain errors become HTTP
// status codes.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/szhou/travelog/internal/apperror"
)

// ErrorResponse is the error shape shared by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`

	// Populated on version conflicts so the client can offer a
	// reload-or-overwrite choice.
	ServerVersion int `json:"serverVersion,omitempty"`
	ClientVersion int `json:"clientVersion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; logging is all that's left.
			slog.Error("encoding JSON response", "error", err)
		}
	}
}

// writeError translates a domain error to an HTTP response. The service
// layer never sees status codes; this switch is the only mapping.
func writeError(w http.ResponseWriter, err error) {
	var vc *apperror.VersionConflict
	if errors.As(err, &vc) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:         "version_conflict",
			Message:       vc.Error(),
			ServerVersion: vc.ServerVersion,
			ClientVersion: vc.ClientVersion,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Unknown errors stay opaque: the raw message may leak queries or
	// file paths.
	slog.Error("unhandled error in HTTP handler", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
