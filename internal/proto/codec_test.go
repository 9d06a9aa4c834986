package proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func encodeFrame(t *testing.T, m Message) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func rawFrame(size uint32, payload []byte) []byte {
	frame := make([]byte, 4, 4+len(payload))
	binary.BigEndian.PutUint32(frame, size)
	return append(frame, payload...)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{name: "public", msg: Message{Kind: KindMessage, From: "alice", Text: "hi there", Timestamp: 1700000000}},
		{name: "private", msg: Message{Kind: KindPrivate, From: "alice", To: "bob", Text: "psst"}},
		{name: "join", msg: Message{Kind: KindJoin, From: "bob"}},
		{name: "unicode", msg: Message{Kind: KindMessage, From: "ёжик", Text: "привет 👋 ok"}},
		{name: "system", msg: System("welcome")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := encodeFrame(t, tt.msg)

			if got := binary.BigEndian.Uint32(frame[:4]); int(got) != len(frame)-4 {
				t.Fatalf("length prefix %d, payload %d", got, len(frame)-4)
			}

			got, err := Decode(bytes.NewReader(frame))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.msg {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, tt.msg)
			}
		})
	}
}

func TestDecodeOneByteAtATime(t *testing.T) {
	msg := Message{Kind: KindPrivate, From: "alice", To: "bob", Text: strings.Repeat("x", 1000), Timestamp: 42}
	frame := encodeFrame(t, msg)

	whole, err := Decode(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("decode whole: %v", err)
	}
	fragmented, err := Decode(iotest.OneByteReader(bytes.NewReader(frame)))
	if err != nil {
		t.Fatalf("decode fragmented: %v", err)
	}
	if whole != fragmented {
		t.Fatalf("fragmented decode differs:\n got %+v\nwant %+v", fragmented, whole)
	}
}

func TestDecodeConsecutiveFrames(t *testing.T) {
	first := Message{Kind: KindJoin, From: "alice"}
	second := Message{Kind: KindMessage, From: "alice", Text: "hello"}

	stream := append(encodeFrame(t, first), encodeFrame(t, second)...)
	r := iotest.HalfReader(bytes.NewReader(stream))

	for i, want := range []Message{first, second} {
		got, err := Decode(r)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("frame %d: got %+v, want %+v", i, got, want)
		}
	}

	if _, err := Decode(r); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

// countingReader records how many bytes were consumed.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestDecodeRejectsBadLength(t *testing.T) {
	tests := []struct {
		name string
		size uint32
		want error
	}{
		{name: "zero", size: 0, want: ErrEmptyFrame},
		{name: "negative as int32", size: 0xFFFFFFFF, want: ErrFrameTooLarge},
		{name: "just above max", size: MaxPayload + 1, want: ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := &countingReader{r: bytes.NewReader(rawFrame(tt.size, []byte(`{"kind":"message"}`)))}

			_, err := Decode(cr)
			var fe *FramingError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FramingError, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if cr.n != 4 {
				t.Fatalf("payload must not be read, consumed %d bytes", cr.n)
			}
		})
	}
}

func TestDecodeAcceptsMaxPayload(t *testing.T) {
	prefix := []byte(`{"kind":"message","text":"`)
	suffix := []byte(`"}`)
	body := bytes.Repeat([]byte("a"), MaxPayload-len(prefix)-len(suffix))
	payload := append(append(append([]byte{}, prefix...), body...), suffix...)

	msg, err := Decode(bytes.NewReader(rawFrame(MaxPayload, payload)))
	if err != nil {
		t.Fatalf("decode max payload: %v", err)
	}
	if len(msg.Text) != len(body) {
		t.Fatalf("unexpected text length %d", len(msg.Text))
	}
}

func TestDecodeTruncated(t *testing.T) {
	frame := encodeFrame(t, Message{Kind: KindMessage, Text: "cut short"})

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty stream", data: nil},
		{name: "partial header", data: frame[:2]},
		{name: "partial payload", data: frame[:len(frame)-3]},
		{name: "header only", data: frame[:4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			var fe *FramingError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FramingError, got %v", err)
			}
		})
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	for _, payload := range []string{`not json`, `null`, `"string"`, `[1,2]`, `{"kind":`, `{"timestamp":"soon"}`} {
		t.Run(payload, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(rawFrame(uint32(len(payload)), []byte(payload))))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestEncodeRejectsOversizedMessage(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, Message{Kind: KindMessage, Text: strings.Repeat("a", MaxPayload)})
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %d bytes", buf.Len())
	}
}

func TestEncodeOmitsEmptyTo(t *testing.T) {
	frame := encodeFrame(t, Message{Kind: KindMessage, From: "a", Text: "b"})
	if bytes.Contains(frame, []byte(`"to"`)) {
		t.Fatalf("empty to should be omitted: %s", frame[4:])
	}
}
