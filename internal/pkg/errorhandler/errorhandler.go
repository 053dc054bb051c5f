package errorhandler

import (
	"context"
	"net/http"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
)

// Internal logs err with the request logger and sends a generic 500.
// Details never reach the client.
func Internal(ctx context.Context, w http.ResponseWriter, op string, err error) {
	logger.FromContext(ctx).Error().
		Err(err).
		Str("op", op).
		Msg("Request failed")

	response.InternalError(w)
}

// Validation logs field errors at warn level and sends a 422.
func Validation(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	logger.FromContext(ctx).Warn().
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")

	response.ValidationError(w, fieldErrors)
}

// BestEffort logs a failed side effect. The primary operation is not affected.
func BestEffort(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	logger.FromContext(ctx).Warn().
		Err(err).
		Str("op", op).
		Msg("Side effect failed")
}
