package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/docvault/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// mapTranslateErrorToHTTPStatus keeps the translate contract: only the
// provider's rate limit and billing answers get their own status.
func mapTranslateErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrPaymentRequired):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func errorOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrNotConfigured):
		return "not_configured"
	case domain.IsKind(err, domain.ErrRateLimited):
		return "rate_limited"
	case domain.IsKind(err, domain.ErrPaymentRequired):
		return "payment_required"
	case domain.IsKind(err, domain.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
