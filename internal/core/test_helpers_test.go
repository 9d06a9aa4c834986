package core

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

const waitTimeout = 2 * time.Second

// testClient is the remote end of a net.Pipe, decoding frames in the background.
type testClient struct {
	t    *testing.T
	conn net.Conn
	msgs chan proto.Message
}

func newTestClient(t *testing.T, conn net.Conn) *testClient {
	t.Helper()

	c := &testClient{t: t, conn: conn, msgs: make(chan proto.Message, 256)}
	go func() {
		defer close(c.msgs)
		for {
			m, err := proto.Decode(conn)
			if err != nil {
				return
			}
			c.msgs <- m
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

// newPipeSession returns a server-side session and the client observing it.
func newPipeSession(t *testing.T) (*Session, *testClient) {
	t.Helper()
	server, client := net.Pipe()
	s := NewSession(server, 0)
	t.Cleanup(func() { _ = s.Close() })
	return s, newTestClient(t, client)
}

func newTestHub(t *testing.T, opts Options, sink Sink) *Hub {
	t.Helper()
	h := NewHub(nil, sink, opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		if err := h.Shutdown(ctx); err != nil {
			t.Errorf("hub shutdown: %v", err)
		}
	})
	return h
}

// connect hands a fresh pipe to the hub and returns the client end.
func connect(t *testing.T, h *Hub) *testClient {
	t.Helper()
	server, client := net.Pipe()
	go func() { _ = h.ServeConn(server) }()
	return newTestClient(t, client)
}

func (c *testClient) send(m proto.Message) {
	c.t.Helper()
	if err := proto.Encode(c.conn, m); err != nil {
		c.t.Fatalf("send %s: %v", m.Kind, err)
	}
}

func (c *testClient) next() proto.Message {
	c.t.Helper()
	select {
	case m, ok := <-c.msgs:
		if !ok {
			c.t.Fatalf("connection closed while waiting for a message")
		}
		return m
	case <-time.After(waitTimeout):
		c.t.Fatalf("timed out waiting for a message")
	}
	return proto.Message{}
}

// mustMessage skips frames until one of the given kind arrives.
func (c *testClient) mustMessage(kind proto.Kind) proto.Message {
	c.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case m, ok := <-c.msgs:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %q", kind)
			}
			if m.Kind == kind {
				return m
			}
		case <-deadline:
			c.t.Fatalf("expected message kind %q not received", kind)
		}
	}
}

func (c *testClient) expectNone(d time.Duration) {
	c.t.Helper()
	select {
	case m, ok := <-c.msgs:
		if ok {
			c.t.Fatalf("unexpected message: %+v", m)
		}
	case <-time.After(d):
	}
}

func (c *testClient) waitClosed() {
	c.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-c.msgs:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatalf("connection was not closed by the server")
		}
	}
}

// join runs the handshake and drains the confirmation and member list.
// It returns the name the hub registered.
func (c *testClient) join(h *Hub, name string) string {
	c.t.Helper()

	welcome := c.next()
	if welcome.Kind != proto.KindSystem || welcome.From != proto.SystemSender {
		c.t.Fatalf("expected system welcome, got %+v", welcome)
	}

	c.send(proto.Message{Kind: proto.KindJoin, From: name})

	own := c.next()
	if own.Kind != proto.KindJoin {
		c.t.Fatalf("expected own join notice, got %+v", own)
	}

	confirm := c.next()
	if confirm.Kind != proto.KindSystem || !strings.HasSuffix(confirm.Text, own.From) {
		c.t.Fatalf("expected join confirmation for %s, got %+v", own.From, confirm)
	}

	for i := 1; i < h.Registry().Len(); i++ {
		if m := c.next(); m.Kind != proto.KindJoin {
			c.t.Fatalf("expected member list entry, got %+v", m)
		}
	}
	return own.From
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", what)
}
