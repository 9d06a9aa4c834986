package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("relay_smoke: %v", err)
		os.Exit(1)
	}
}

// run joins twice, sends one message from the first client and waits for the
// second client to receive it.
func run() error {
	addr := flag.String("addr", "localhost:9000", "relay TCP address")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	sender, err := join(ctx, *addr, "smoke-sender", deadline)
	if err != nil {
		return err
	}
	defer sender.Close()

	receiver, err := join(ctx, *addr, "smoke-receiver", deadline)
	if err != nil {
		return err
	}
	defer receiver.Close()

	if err := proto.Encode(sender, proto.Message{Kind: proto.KindMessage, Text: *text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		m, err := proto.Decode(receiver)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: kind=%s from=%s text=%q ts=%d\n", m.Kind, m.From, m.Text, m.Timestamp)
		if m.Kind == proto.KindMessage && m.Text == *text {
			break
		}
	}

	_ = proto.Encode(sender, proto.Message{Kind: proto.KindLeave})
	_ = proto.Encode(receiver, proto.Message{Kind: proto.KindLeave})
	fmt.Println("smoke test passed")
	return nil
}

func join(ctx context.Context, addr, name string, deadline time.Time) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	_ = conn.SetDeadline(deadline)

	welcome, err := proto.Decode(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	fmt.Printf("%s: %s\n", name, welcome.Text)

	if err := proto.Encode(conn, proto.Message{Kind: proto.KindJoin, From: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}

	for {
		m, err := proto.Decode(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("wait for join: %w", err)
		}
		if m.Kind == proto.KindSystem && strings.HasPrefix(m.Text, "you joined as ") {
			fmt.Printf("%s: %s\n", name, m.Text)
			return conn, nil
		}
	}
}
