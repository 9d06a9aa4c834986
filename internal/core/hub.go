package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// DefaultWelcome is the unsolicited system frame that opens every handshake.
const DefaultWelcome = "welcome to wirechat, send a join message with your name"

// ConnState is a step of the per-connection state machine.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateAwaitingHandshake
	StateActive
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options tunes per-connection behaviour of a Hub.
type Options struct {
	// WriteTimeout bounds each frame write; zero disables the deadline.
	WriteTimeout time.Duration
	// RateLimit is the number of messages per minute a session may send;
	// zero means unlimited.
	RateLimit int
	// Welcome overrides DefaultWelcome.
	Welcome string
}

// Hub owns the registry and router and runs the connection handler for every
// transport handed to ServeConn.
type Hub struct {
	registry *Registry
	router   *Router
	sink     Sink
	log      *zerolog.Logger
	opts     Options

	// route dispatches one frame of an Active session; router.Route by default.
	route func(*Session, proto.Message) error

	mu     sync.Mutex
	live   map[*Session]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewHub creates a new chat hub instance. Nil logger and sink are replaced
// with no-op implementations.
func NewHub(logger *zerolog.Logger, sink Sink, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if sink == nil {
		sink = Discard
	}
	if opts.Welcome == "" {
		opts.Welcome = DefaultWelcome
	}

	registry := NewRegistry()
	h := &Hub{
		registry: registry,
		router:   NewRouter(registry, logger),
		sink:     sink,
		log:      logger,
		opts:     opts,
		live:     make(map[*Session]struct{}),
	}
	h.route = h.router.Route
	return h
}

// Registry exposes the hub's client registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Router exposes the hub's router.
func (h *Hub) Router() *Router { return h.router }

// Members returns the sorted display names of registered sessions.
func (h *Hub) Members() []string { return h.registry.Names() }

// ServeConn runs the connection handler for conn and blocks until the
// connection reaches Closed. The hub takes ownership of conn.
func (h *Hub) ServeConn(conn net.Conn) error {
	s := NewSession(conn, h.opts.WriteTimeout)
	s.limiter = newRateLimiter(h.opts.RateLimit)

	if !h.track(s) {
		_ = s.Close()
		return ErrHubClosed
	}
	defer h.untrack(s)

	c := &connHandler{hub: h, session: s, state: StateConnecting}
	c.log = h.log.With().Str("session_id", s.ID).Str("addr", s.Addr).Logger()
	return c.run()
}

// Shutdown closes every live connection, registered or not, and waits for
// their handlers to finish or ctx to expire. Later ServeConn calls fail with
// ErrHubClosed.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.live))
	for s := range h.live {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			h.log.Debug().Err(err).Str("session_id", s.ID).Msg("close on shutdown")
		}
	}
	h.log.Info().Int("connections", len(sessions)).Msg("closed client connections")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) track(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.live[s] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Hub) untrack(s *Session) {
	h.mu.Lock()
	delete(h.live, s)
	h.mu.Unlock()
	h.wg.Done()
}

func (h *Hub) publish(kind StatusKind, s *Session, detail string) {
	h.sink.Publish(Status{
		Kind:      kind,
		SessionID: s.ID,
		Name:      s.Name(),
		Addr:      s.Addr,
		Detail:    detail,
		Time:      time.Now().UTC(),
	})
}

// connHandler carries the state of one ServeConn call.
type connHandler struct {
	hub        *Hub
	session    *Session
	log        zerolog.Logger
	state      ConnState
	registered bool
}

func (c *connHandler) transition(next ConnState) {
	c.log.Debug().Stringer("from", c.state).Stringer("to", next).Msg("connection state")
	c.state = next
}

func (c *connHandler) run() error {
	h, s := c.hub, c.session
	h.publish(StatusConnected, s, "")

	err := c.handshake()
	if err == nil {
		c.transition(StateActive)
		err = c.serve()
	}

	c.transition(StateClosing)
	c.close(err)
	c.transition(StateClosed)

	if errors.Is(err, ErrLeave) || isDisconnect(err) {
		return nil
	}
	return err
}

func (c *connHandler) handshake() error {
	h, s := c.hub, c.session

	if err := s.Send(proto.System(h.opts.Welcome)); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	c.transition(StateAwaitingHandshake)

	m, err := s.Receive()
	if err != nil {
		return err
	}
	if m.Kind != proto.KindJoin {
		herr := &HandshakeError{Got: m.Kind}
		h.router.Notify(s, coreError(ErrCodeHandshake, fmt.Sprintf("expected a join message, got %q", m.Kind)))
		return herr
	}

	requested := m.From
	if requested == "" {
		requested = m.Text
	}
	name, peers := h.registry.Join(SanitizeName(requested), s)
	c.registered = true
	c.log = c.log.With().Str("name", name).Logger()
	c.log.Info().Str("requested", requested).Msg("client joined")
	h.publish(StatusJoined, s, "")

	// Earlier members learn of s from this notice; later ones list s in
	// their own member list. Each pair hears about the other once.
	now := proto.Now()
	h.router.Deliver(append([]*Session{s}, peers...), proto.Message{
		Kind:      proto.KindJoin,
		From:      name,
		Text:      name + " joined",
		Timestamp: now,
	})

	if err := s.Send(proto.System("you joined as " + name)); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	for _, other := range peers {
		member := proto.Message{Kind: proto.KindJoin, From: other.Name(), Timestamp: now}
		if err := s.Send(member); err != nil {
			return fmt.Errorf("send member list: %w", err)
		}
	}
	return nil
}

func (c *connHandler) serve() error {
	s := c.session
	for {
		m, err := s.Receive()
		if err != nil {
			return err
		}

		if m.Kind != proto.KindLeave && !s.limiter.allow() {
			c.log.Debug().Msg("rate limit exceeded")
			c.hub.router.Notify(s, coreError(ErrCodeRateLimited, "rate limit exceeded, message dropped"))
			continue
		}

		if err := c.dispatch(m); err != nil {
			return err
		}
	}
}

func (c *connHandler) dispatch(m proto.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route %q: panic: %v", m.Kind, r)
		}
	}()
	return c.hub.route(c.session, m)
}

func (c *connHandler) close(cause error) {
	h, s := c.hub, c.session

	reason := "disconnected"
	var herr *HandshakeError
	switch {
	case errors.Is(cause, ErrLeave):
		reason = "left"
	case errors.As(cause, &herr):
		c.log.Info().Err(cause).Msg("handshake rejected")
		h.publish(StatusRejected, s, herr.Error())
	case cause != nil && !isDisconnect(cause):
		reason = cause.Error()
		c.log.Warn().Err(cause).Msg("connection failed")
		h.publish(StatusError, s, cause.Error())
	}

	if c.registered && h.registry.Unregister(s) {
		name := s.Name()
		h.router.Broadcast(proto.Message{
			Kind:      proto.KindLeave,
			From:      name,
			Text:      name + " left",
			Timestamp: proto.Now(),
		})
		c.log.Info().Str("reason", reason).Msg("client left")
		h.publish(StatusLeft, s, reason)
	} else if !c.registered && herr == nil {
		c.log.Debug().Err(cause).Msg("closed before handshake")
	}

	if err := s.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.log.Debug().Err(err).Msg("close transport")
	}
}

// isDisconnect reports errors that mean the peer or the server went away.
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}
