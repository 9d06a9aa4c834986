package core

import (
	"fmt"
	"time"
)

// StatusKind classifies a status event.
type StatusKind int

const (
	// StatusConnected is emitted when a transport is accepted.
	StatusConnected StatusKind = iota
	// StatusJoined is emitted after a successful handshake.
	StatusJoined
	// StatusRejected is emitted when the handshake fails.
	StatusRejected
	// StatusLeft is emitted when a registered session is torn down.
	StatusLeft
	// StatusError reports a per-connection failure that ended the session.
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusConnected:
		return "connected"
	case StatusJoined:
		return "joined"
	case StatusRejected:
		return "rejected"
	case StatusLeft:
		return "left"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// Status describes a connection lifecycle event for operators.
type Status struct {
	Kind      StatusKind
	SessionID string
	Name      string
	Addr      string
	Detail    string
	Time      time.Time
}

// String renders a human-readable status line.
func (s Status) String() string {
	who := s.Name
	if who == "" {
		who = s.Addr
	}
	switch s.Kind {
	case StatusConnected:
		return fmt.Sprintf("connection from %s", s.Addr)
	case StatusJoined:
		return fmt.Sprintf("%s joined from %s", s.Name, s.Addr)
	case StatusRejected:
		return fmt.Sprintf("handshake from %s rejected: %s", s.Addr, s.Detail)
	case StatusLeft:
		return fmt.Sprintf("%s left (%s)", who, s.Detail)
	case StatusError:
		return fmt.Sprintf("error on %s: %s", who, s.Detail)
	default:
		return fmt.Sprintf("%s: %s %s", s.Kind, who, s.Detail)
	}
}

// Sink consumes status events. Implementations must be safe for concurrent use
// and must not block for long.
type Sink interface {
	Publish(Status)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Status)

// Publish calls f.
func (f SinkFunc) Publish(s Status) { f(s) }

// MultiSink fans a status out to several sinks.
type MultiSink []Sink

// Publish forwards s to every non-nil sink.
func (m MultiSink) Publish(s Status) {
	for _, sink := range m {
		if sink != nil {
			sink.Publish(s)
		}
	}
}

type discardSink struct{}

func (discardSink) Publish(Status) {}

// Discard drops every status event.
var Discard Sink = discardSink{}
