package streaming

import (
	"bytes"
	"context"
	"testing"

	"github.com/streamhub/streamhub/internal/cursor"
)

type countingSink struct {
	buf      bytes.Buffer
	flushes  int
	writeErr error
}

func (b *countingSink) Write(p []byte) (int, error) {
	if b.writeErr != nil {
		return 0, b.writeErr
	}
	return b.buf.Write(p)
}
func (b *countingSink) Context() context.Context { return context.Background() }
func (b *countingSink) Flush() error             { b.flushes++; return nil }

func TestWriteBatchKeepAliveOmitsEventsKey(t *testing.T) {
	s := &countingSink{}
	n, err := WriteBatch(s, cursor.Cursor{Partition: "0", Offset: "000"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\"cursor\":{\"partition\":\"0\",\"offset\":\"000\"}}\n"
	if s.buf.String() != want {
		t.Fatalf("got %q want %q", s.buf.String(), want)
	}
	if n != len(want) {
		t.Fatalf("bytes-flushed counter got %d want %d", n, len(want))
	}
	if s.flushes != 1 {
		t.Fatalf("expected exactly one flush, got %d", s.flushes)
	}
}

func TestWriteBatchWithEventsNoTrailingComma(t *testing.T) {
	s := &countingSink{}
	events := [][]byte{[]byte(`{"a":1}`), []byte(`{"a":2}`), []byte(`{"a":3}`)}
	if _, err := WriteBatch(s, cursor.Cursor{Partition: "0", Offset: "003"}, events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"cursor":{"partition":"0","offset":"003"},"events":[{"a":1},{"a":2},{"a":3}]}` + "\n"
	if s.buf.String() != want {
		t.Fatalf("got %q want %q", s.buf.String(), want)
	}
}

func TestWriteBatchSingleEvent(t *testing.T) {
	s := &countingSink{}
	if _, err := WriteBatch(s, cursor.Cursor{Partition: "1", Offset: "010"}, [][]byte{[]byte(`{"x":true}`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"cursor":{"partition":"1","offset":"010"},"events":[{"x":true}]}` + "\n"
	if s.buf.String() != want {
		t.Fatalf("got %q want %q", s.buf.String(), want)
	}
}

func TestWriteBatchExactlyOneNewline(t *testing.T) {
	s := &countingSink{}
	if _, err := WriteBatch(s, cursor.Cursor{Partition: "0", Offset: "001"}, [][]byte{[]byte(`{"a":1}`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := bytes.Count(s.buf.Bytes(), []byte{'\n'}); n != 1 {
		t.Fatalf("expected exactly one newline, got %d", n)
	}
	if !bytes.HasSuffix(s.buf.Bytes(), []byte{'\n'}) {
		t.Fatalf("expected record to end with newline")
	}
}

func TestWriteBatchPropagatesSinkError(t *testing.T) {
	s := &countingSink{writeErr: errBoom}
	if _, err := WriteBatch(s, cursor.Cursor{Partition: "0", Offset: "000"}, nil); err == nil {
		t.Fatalf("expected sink write error to propagate")
	}
}

var errBoom = &sinkErr{"boom"}

type sinkErr struct{ msg string }

func (e *sinkErr) Error() string { return e.msg }
