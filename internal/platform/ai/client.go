// Package ai wraps the external assistant text-generation endpoint. The
// service treats it as an opaque text-in/text-out collaborator: callers send
// the doctor's message under a session id and get prose back, or
// ErrUnavailable. Nothing here retries; a failed exchange is surfaced and the
// doctor resends manually.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable covers network failure, non-2xx responses and responses the
// client cannot read a reply out of.
var ErrUnavailable = errors.New("assistant unavailable")

// Client is a single blocking round trip to the assistant. sessionID scopes
// the exchange so the backend can keep conversational context.
type Client interface {
	Generate(ctx context.Context, sessionID, input string) (string, error)
}
