package proto

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooLarge is wrapped by FramingError for lengths above MaxPayload.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrEmptyFrame is wrapped by FramingError for zero-length frames.
	ErrEmptyFrame = errors.New("empty frame")
)

// FramingError reports a malformed, oversized or truncated frame, or a stream
// that closed before a complete frame arrived.
type FramingError struct {
	Op  string
	Err error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing: %s: %v", e.Op, e.Err)
}

func (e *FramingError) Unwrap() error { return e.Err }

// DecodeError reports frame bytes that do not parse into a Message.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode message: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
