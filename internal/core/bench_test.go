package core

import (
	"io"
	"net"
	"testing"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	for i := range recipients {
		server, client := net.Pipe()
		b.Cleanup(func() {
			_ = server.Close()
			_ = client.Close()
		})
		go func() { _, _ = io.Copy(io.Discard, client) }()
		reg.Register("c"+string(rune('a'+i%26)), NewSession(server, 0))
	}

	msg := proto.Message{Kind: proto.KindMessage, From: "sender", Text: "payload"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if n := router.Broadcast(msg); n != recipients {
			b.Fatalf("delivered %d of %d", n, recipients)
		}
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
