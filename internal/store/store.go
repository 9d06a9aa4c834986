package store

import (
	"context"
	"time"
)

// Event is one recorded presence change. Message text is never stored.
type Event struct {
	ID        int64
	Kind      string
	SessionID string
	Name      string
	Addr      string
	Detail    string
	CreatedAt time.Time
}

// EventStore records and lists presence events.
type EventStore interface {
	RecordEvent(ctx context.Context, ev Event) (int64, error)
	ListEvents(ctx context.Context, limit int) ([]Event, error)
}

// Store is the persistence backend used by the relay.
type Store interface {
	EventStore
	Close() error
}
