package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	kinds := []string{"connected", "joined", "left"}
	for i, k := range kinds {
		id, err := s.RecordEvent(ctx, store.Event{
			Kind:      k,
			SessionID: "s1",
			Name:      "alice",
			Addr:      "127.0.0.1:5000",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("record %s: %v", k, err)
		}
		if id != int64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, id)
		}
	}

	events, err := s.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// most recent first
	for i, want := range []string{"left", "joined", "connected"} {
		if events[i].Kind != want {
			t.Errorf("event %d: expected kind %s, got %s", i, want, events[i].Kind)
		}
	}
	if !events[2].CreatedAt.Equal(base) {
		t.Errorf("expected created_at %v, got %v", base, events[2].CreatedAt)
	}
	if events[0].Name != "alice" || events[0].Addr != "127.0.0.1:5000" {
		t.Errorf("unexpected event fields: %+v", events[0])
	}
}

func TestListEventsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.RecordEvent(ctx, store.Event{Kind: "connected", SessionID: "s"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	events, err := s.ListEvents(ctx, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != 5 || events[1].ID != 4 {
		t.Errorf("expected ids 5,4, got %d,%d", events[0].ID, events[1].ID)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("expected created_at to default to now")
	}
}

func TestAuditSinkRecordsStatus(t *testing.T) {
	s := newTestStore(t)
	sink := store.NewAuditSink(s, nil)

	sink.Publish(core.Status{
		Kind:      core.StatusRejected,
		SessionID: "abc",
		Addr:      "10.0.0.1:4000",
		Detail:    "expected join, got message",
		Time:      time.Now().UTC(),
	})

	events, err := s.ListEvents(context.Background(), 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != core.StatusRejected.String() || ev.SessionID != "abc" || ev.Detail != "expected join, got message" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestAuditSinkClosedStore(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	s.Close()

	// errors are logged, never surfaced to the hub
	store.NewAuditSink(s, nil).Publish(core.Status{Kind: core.StatusConnected, SessionID: "x"})
}
