package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotConfigured    = errors.New("not configured")
	ErrRateLimited      = errors.New("rate limited")
	ErrPaymentRequired  = errors.New("payment required")
	ErrUpstream         = errors.New("upstream failure")
	ErrDocumentNotFound = errors.New("document not found")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// PublicError is an error whose Message is safe to return to API callers.
type PublicError struct {
	Kind    error
	Message string
	Err     error
}

func NewPublicError(kind error, message string, err error) *PublicError {
	return &PublicError{Kind: kind, Message: message, Err: err}
}

func (e *PublicError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *PublicError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// PublicMessage returns the caller-facing message carried by err, or fallback.
func PublicMessage(err error, fallback string) string {
	var public *PublicError
	if errors.As(err, &public) && public.Message != "" {
		return public.Message
	}
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		return err.Error()
	}
	return fallback
}

// UpstreamStatusError reports a non-success HTTP status from the completion provider.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	if e == nil {
		return "upstream status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, body)
}

// UpstreamStatus extracts the upstream HTTP status code from err, if any.
func UpstreamStatus(err error) (int, bool) {
	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}
