package proto

import "time"

// Kind discriminates how a message is routed.
type Kind string

const (
	KindMessage Kind = "message"
	KindJoin    Kind = "join"
	KindLeave   Kind = "leave"
	KindPrivate Kind = "private"
	KindSystem  Kind = "system"
)

const (
	// MaxPayload is the largest payload a frame may declare.
	MaxPayload = 64 * 1024

	// SystemSender is the From value of every message the server itself emits.
	SystemSender = "server"
)

// Message is the unit exchanged on the wire, one per frame.
type Message struct {
	Kind      Kind   `json:"kind"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// System builds a server notice stamped with the current time.
func System(text string) Message {
	return Message{
		Kind:      KindSystem,
		From:      SystemSender,
		Text:      text,
		Timestamp: Now(),
	}
}

// Now returns the current server time in seconds since epoch (UTC).
func Now() int64 {
	return time.Now().UTC().Unix()
}

// Valid reports whether kind is one of the known message kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMessage, KindJoin, KindLeave, KindPrivate, KindSystem:
		return true
	default:
		return false
	}
}
