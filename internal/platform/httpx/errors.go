package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hrdesk/hrdesk/internal/shared"
)

// StatusFor maps a domain error to its HTTP status.
// Authorization denials always become 403.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrForbidden), errors.Is(err, shared.ErrLoginRequired):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrDuplicate), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to envelope responses. Denials carry their
// own message; everything else goes through shared.UserSafeMessage.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusForbidden {
		Error(w, status, err.Error())
		return
	}
	Error(w, status, shared.UserSafeMessage(err))
}

// Fail logs unexpected errors under op and writes the mapped response.
func Fail(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if StatusFor(err) >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) && logger != nil {
		logger.Error(op, slog.Any("error", err))
	}
	RespondError(w, err)
}
