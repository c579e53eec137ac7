package transport

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/session"
)

// Error maps a domain error to an HTTP response. Unknown errors are logged
// and hidden behind a generic 500.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrProfileNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "profile not found")
	case errors.Is(err, model.ErrLinkNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "link not found")
	case errors.Is(err, model.ErrInvalidUsername):
		WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, session.ErrClosed):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "session closed")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		observability.GetLogger(ctx).Error("internal_error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
