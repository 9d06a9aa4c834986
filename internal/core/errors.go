package core

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// Error codes carried by system notices.
const (
	ErrCodeNotFound    = "not_found"
	ErrCodeBadRequest  = "bad_request"
	ErrCodeUnknownType = "unknown_type"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeHandshake   = "handshake"
)

var (
	// ErrNotFound is returned when a private message names an unregistered user.
	ErrNotFound = errors.New("user not found")
	// ErrLeave signals that the client asked to end its session.
	ErrLeave = errors.New("client left")
	// ErrHubClosed is returned for connections arriving after Shutdown.
	ErrHubClosed = errors.New("hub closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// HandshakeError reports a first frame that was not a join.
type HandshakeError struct {
	Got proto.Kind
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake: expected %q, got %q", proto.KindJoin, e.Got)
}

// DeliveryError reports a failed write to one fan-out target.
type DeliveryError struct {
	SessionID string
	Target    string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s (%s): %v", e.Target, e.SessionID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
