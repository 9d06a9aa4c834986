package log

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// Sink writes hub status events as log lines.
type Sink struct {
	log *zerolog.Logger
}

// NewSink returns a core.Sink backed by logger.
func NewSink(logger *zerolog.Logger) *Sink {
	return &Sink{log: logger}
}

// Publish logs s at a level matching its kind.
func (s *Sink) Publish(st core.Status) {
	ev := s.log.Info()
	if st.Kind == core.StatusError {
		ev = s.log.Warn()
	}

	ev.Str("event", st.Kind.String()).
		Str("session_id", st.SessionID).
		Str("addr", st.Addr)
	if st.Name != "" {
		ev.Str("name", st.Name)
	}
	ev.Msg(st.String())
}
