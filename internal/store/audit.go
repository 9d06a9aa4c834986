package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

const auditTimeout = 2 * time.Second

// AuditSink records hub status events into an EventStore.
type AuditSink struct {
	store EventStore
	log   *zerolog.Logger
}

// NewAuditSink returns a core.Sink writing to st.
func NewAuditSink(st EventStore, logger *zerolog.Logger) *AuditSink {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuditSink{store: st, log: logger}
}

// Publish stores s. Failures are logged and otherwise ignored.
func (a *AuditSink) Publish(s core.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	_, err := a.store.RecordEvent(ctx, Event{
		Kind:      s.Kind.String(),
		SessionID: s.SessionID,
		Name:      s.Name,
		Addr:      s.Addr,
		Detail:    s.Detail,
		CreatedAt: s.Time,
	})
	if err != nil {
		a.log.Warn().Err(err).Str("session_id", s.SessionID).Msg("failed to record presence event")
	}
}
