package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("relay_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:9000", "relay address, host:port or ws://host/ws")
	name := flag.String("name", "cli-user", "display name to join with")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := proto.Encode(conn, proto.Message{Kind: proto.KindJoin, From: *name}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *name)
	fmt.Println("Type messages and press Enter. /msg <name> <text> sends privately, /quit leaves.")

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		readLoop(conn)
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-readDone:
		}
	}()

	writeLoop(ctx, conn, readDone)
	return nil
}

// dial connects over plain TCP, or over WebSocket for ws:// and wss:// addresses.
func dial(ctx context.Context, addr string) (net.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		c, _, err := websocket.Dial(dialCtx, addr, nil)
		if err != nil {
			return nil, err
		}
		c.SetReadLimit(proto.MaxPayload + 4)
		return websocket.NetConn(context.Background(), c, websocket.MessageBinary), nil
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func readLoop(conn net.Conn) {
	for {
		m, err := proto.Decode(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				fmt.Println("disconnected")
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		ts := time.Unix(m.Timestamp, 0).Format("15:04:05")
		switch m.Kind {
		case proto.KindMessage:
			fmt.Printf("[%s] %s: %s\n", ts, m.From, m.Text)
		case proto.KindPrivate:
			fmt.Printf("[%s] %s -> %s: %s\n", ts, m.From, m.To, m.Text)
		case proto.KindJoin, proto.KindLeave, proto.KindSystem:
			fmt.Printf("[%s] * %s\n", ts, m.Text)
		default:
			fmt.Printf("[%s] kind=%s from=%s text=%s\n", ts, m.Kind, m.From, m.Text)
		}
	}
}

func writeLoop(ctx context.Context, conn net.Conn, readDone <-chan struct{}) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case line, ok := <-lines:
			if !ok {
				_ = proto.Encode(conn, proto.Message{Kind: proto.KindLeave})
				return
			}
			m, send := parseLine(line)
			if !send {
				continue
			}
			if err := proto.Encode(conn, m); err != nil {
				log.Printf("send error: %v", err)
				return
			}
			if m.Kind == proto.KindLeave {
				<-readDone
				return
			}
		}
	}
}

// parseLine turns an input line into an outgoing message.
func parseLine(line string) (proto.Message, bool) {
	text := strings.TrimSpace(line)
	switch {
	case text == "":
		return proto.Message{}, false
	case text == "/quit":
		return proto.Message{Kind: proto.KindLeave}, true
	case strings.HasPrefix(text, "/msg "):
		to, body, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(text, "/msg ")), " ")
		if !ok || strings.TrimSpace(body) == "" {
			fmt.Println("usage: /msg <name> <text>")
			return proto.Message{}, false
		}
		return proto.Message{Kind: proto.KindPrivate, To: to, Text: strings.TrimSpace(body)}, true
	default:
		return proto.Message{Kind: proto.KindMessage, Text: text}, true
	}
}
