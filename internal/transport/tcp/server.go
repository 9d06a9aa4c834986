// Package tcp is the server shell: it accepts TCP connections and hands each
// one to the hub's connection handler.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// ErrServerStopped is returned by Serve after Stop has been called.
var ErrServerStopped = errors.New("tcp server stopped")

// Server accepts connections for a core.Hub.
type Server struct {
	hub             *core.Hub
	host            string
	shutdownTimeout time.Duration
	log             *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
	conns    sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

// NewServer builds a server for hub using the host and shutdown timeout from cfg.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.Default().ShutdownTimeout
	}
	return &Server{
		hub:             hub,
		host:            cfg.Host,
		shutdownTimeout: timeout,
		log:             logger,
	}
}

// Start listens on port and serves until Stop is called.
func (s *Server) Start(port int) error {
	return s.ListenAndServe(net.JoinHostPort(s.host, strconv.Itoa(port)))
}

// ListenAndServe listens on addr and serves until Stop is called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called, then returns nil.
// Accept errors other than a closed listener are logged and retried with
// backoff. The server takes ownership of ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerStopped
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("accepting tcp connections")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isStopped() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept error")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if !s.trackConn() {
			_ = conn.Close()
			return nil
		}
		go func() {
			defer s.conns.Done()
			if err := s.hub.ServeConn(conn); err != nil {
				s.log.Debug().Err(err).Str("addr", conn.RemoteAddr().String()).Msg("connection ended")
			}
		}()
	}
}

// trackConn counts a new connection handler unless Stop has begun.
func (s *Server) trackConn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns.Add(1)
	return true
}

// Addr returns the listening address, or nil before Serve is running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every active connection, then waits for the
// connection handlers to finish. It is safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		ln := s.listener
		s.mu.Unlock()

		if ln != nil {
			if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.log.Warn().Err(err).Msg("close listener")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.hub.Shutdown(ctx); err != nil {
			s.stopErr = fmt.Errorf("shutdown hub: %w", err)
			return
		}
		s.conns.Wait()
		s.log.Info().Msg("tcp server stopped")
	})
	return s.stopErr
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
