package core

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// Router decides where a decoded message goes and performs the delivery.
type Router struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewRouter builds a router over registry. A nil logger disables logging.
func NewRouter(registry *Registry, logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{registry: registry, log: logger}
}

// Route dispatches m on behalf of from. It returns ErrLeave when the client
// asked to end its session and nil otherwise; delivery failures are logged,
// not returned.
func (r *Router) Route(from *Session, m proto.Message) error {
	switch m.Kind {
	case proto.KindMessage:
		m.From = from.Name()
		m.To = ""
		m.Timestamp = proto.Now()
		r.Broadcast(m)
		return nil

	case proto.KindPrivate:
		m.From = from.Name()
		m.Timestamp = proto.Now()
		r.private(from, m)
		return nil

	case proto.KindLeave:
		return ErrLeave

	default:
		r.log.Debug().
			Str("session_id", from.ID).
			Str("kind", string(m.Kind)).
			Msg("unknown message type")
		r.Notify(from, coreError(ErrCodeUnknownType, fmt.Sprintf("unknown message type %q", m.Kind)))
		return nil
	}
}

func (r *Router) private(from *Session, m proto.Message) {
	if m.To == "" {
		r.Notify(from, coreError(ErrCodeBadRequest, "private message requires a recipient"))
		return
	}

	target, ok := r.registry.Find(m.To)
	if !ok {
		r.log.Debug().
			Str("session_id", from.ID).
			Str("target", m.To).
			Err(ErrNotFound).
			Msg("private message dropped")
		r.Notify(from, coreError(ErrCodeNotFound, fmt.Sprintf("user not found: %s", m.To)))
		return
	}

	if target == from {
		r.Deliver([]*Session{from}, m)
		return
	}
	r.Deliver([]*Session{target, from}, m)
}

// Broadcast delivers m to every registered session and returns the number of
// successful deliveries.
func (r *Router) Broadcast(m proto.Message) int {
	return r.Deliver(r.registry.List(), m)
}

// Deliver writes m to every target concurrently and waits for all of them.
// A failing target is logged and does not affect the others.
func (r *Router) Deliver(targets []*Session, m proto.Message) int {
	switch len(targets) {
	case 0:
		return 0
	case 1:
		if r.send(targets[0], m) {
			return 1
		}
		return 0
	}

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	for _, target := range targets {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if r.send(s, m) {
				delivered.Add(1)
			}
		}(target)
	}
	wg.Wait()

	return int(delivered.Load())
}

// Notify sends a system notice carrying err's message to s.
func (r *Router) Notify(s *Session, err *CoreError) {
	r.send(s, proto.System(err.Message))
}

func (r *Router) send(s *Session, m proto.Message) bool {
	if err := s.Send(m); err != nil {
		derr := &DeliveryError{SessionID: s.ID, Target: s.String(), Err: err}
		r.log.Warn().
			Err(derr).
			Str("session_id", s.ID).
			Str("target", s.String()).
			Str("kind", string(m.Kind)).
			Msg("delivery failed")
		return false
	}
	return true
}
