package core

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

// Session is one connected participant as seen by the core layer.
// All writes to the underlying connection go through Send.
type Session struct {
	ID   string
	Addr string

	name         string
	conn         net.Conn
	writeTimeout time.Duration
	limiter      *rateLimiter

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps conn with a fresh session id.
func NewSession(conn net.Conn, writeTimeout time.Duration) *Session {
	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Session{
		ID:           utils.NewID(),
		Addr:         addr,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Name returns the registered display name, empty before registration.
func (s *Session) Name() string {
	return s.name
}

// Send encodes m onto the connection. Concurrent calls are serialized.
func (s *Session) Send(m proto.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	return proto.Encode(s.conn, m)
}

// Receive decodes the next frame. Only the owning handler may call it.
func (s *Session) Receive() (proto.Message, error) {
	return proto.Decode(s.conn)
}

// Close closes the transport once; later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *Session) String() string {
	if s.name == "" {
		return s.ID
	}
	return s.name
}
