package proto

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const headerSize = 4

var byteOrder = binary.BigEndian

// Encode writes m as a single length-prefixed frame.
// Header and payload go out in one Write call.
func Encode(w io.Writer, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(payload) > MaxPayload {
		return &FramingError{Op: "encode", Err: fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))}
	}

	frame := make([]byte, headerSize+len(payload))
	byteOrder.PutUint32(frame, uint32(len(payload)))
	copy(frame[headerSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Decode reads exactly one frame from r and parses its payload.
// Lengths of zero or above MaxPayload are rejected before any payload byte
// is read.
func Decode(r io.Reader) (Message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, &FramingError{Op: "read length", Err: err}
	}

	size := byteOrder.Uint32(header[:])
	switch {
	case size == 0:
		return Message{}, &FramingError{Op: "read length", Err: ErrEmptyFrame}
	case size > MaxPayload:
		return Message{}, &FramingError{Op: "read length", Err: fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, &FramingError{Op: "read payload", Err: err}
	}

	return Unmarshal(payload)
}

// Unmarshal parses a frame payload. Only JSON objects are accepted.
func Unmarshal(payload []byte) (Message, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Message{}, &DecodeError{Err: errors.New("payload is not a JSON object")}
	}

	var m Message
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return Message{}, &DecodeError{Err: err}
	}
	return m, nil
}
