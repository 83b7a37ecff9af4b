package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/infrastructure/resilience"
)

// Errors caused by the event itself. Resending the same payload cannot help
// and says nothing about the health of the connection.
var rejectedEventErrors = []error{
	nats.ErrMaxPayload,
	nats.ErrBadSubject,
	nats.ErrInvalidMsg,
}

// Errors from a connection that is down or going away; a later attempt may land.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionDraining,
	nats.ErrReconnectBufExceeded,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isAny(err, rejectedEventErrors):
		return resilience.ErrorClassification{}
	case isAny(err, connectionErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// publishError marks connection trouble and an open breaker as ErrTemporary
// and a rejected event as ErrInvalidInput.
func publishError(err error) error {
	switch {
	case err == nil:
		return nil
	case resilience.IsCircuitOpen(err), isAny(err, connectionErrors):
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	case isAny(err, rejectedEventErrors):
		return domain.WrapError(domain.ErrInvalidInput, "nats publish", err)
	}
	return err
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
