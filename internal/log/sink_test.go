package log

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

func TestSinkWritesStatusLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(NewWithWriter("info", &buf))

	sink.Publish(core.Status{
		Kind:      core.StatusJoined,
		SessionID: "abc",
		Name:      "alice",
		Addr:      "127.0.0.1:5555",
		Time:      time.Now(),
	})

	out := buf.String()
	for _, want := range []string{"alice joined from 127.0.0.1:5555", "session_id", "abc"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
