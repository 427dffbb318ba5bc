package streaming

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/streamhub/streamhub/internal/blacklist"
	"github.com/streamhub/streamhub/internal/consumer"
	"github.com/streamhub/streamhub/internal/cursor"
	"github.com/streamhub/streamhub/pkg/log"
)

// fakeConsumer serves a fixed queue of events, then returns (nil, nil)
// forever (the "none this tick" case in spec.md §4.2 step 2).
type fakeConsumer struct {
	events []consumer.ConsumedEvent
	pos    int
	closed bool
}

func (c *fakeConsumer) ReadEvent(context.Context) (*consumer.ConsumedEvent, error) {
	if c.pos >= len(c.events) {
		return nil, nil
	}
	ev := c.events[c.pos]
	c.pos++
	return &ev, nil
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

// bufSink is an always-ready in-memory Sink.
type bufSink struct {
	buf bytes.Buffer
	ctx context.Context
}

func newBufSink() *bufSink { return &bufSink{ctx: context.Background()} }

func (s *bufSink) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s *bufSink) Context() context.Context    { return s.ctx }
func (s *bufSink) Flush() error                { return nil }

// stepClock advances by step on every call, letting a test control
// exactly how much wall-time each loop iteration observes without
// sleeping.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	cur := c.t
	c.t = c.t.Add(c.step)
	return cur
}

func testLogger() log.Logger {
	return log.NewLogger(log.WithOutput(discardOutput{}))
}

type discardOutput struct{}

func (discardOutput) Write(*log.Entry, []byte) error { return nil }
func (discardOutput) Close() error                   { return nil }

func TestEngineKeepAliveScenario(t *testing.T) {
	cfg := Config{
		EventTypeName:        "orders",
		ConsumingAppID:       "app-a",
		Cursors:              []cursor.NakadiCursor{{EventType: "orders", Partition: "0", Offset: "000"}},
		BatchLimit:           100,
		BatchTimeout:         time.Second,
		StreamLimit:          0,
		StreamTimeout:        0,
		StreamKeepAliveLimit: 2,
	}
	sink := newBufSink()
	eng := NewEngine(cfg, &fakeConsumer{}, sink, blacklist.AllowAll{}, testLogger())
	eng.now = (&stepClock{t: time.Unix(0, 0), step: 2 * time.Second}).Now

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := `{"cursor":{"partition":"0","offset":"000"}}` + "\n" +
		`{"cursor":{"partition":"0","offset":"000"}}` + "\n"
	if sink.buf.String() != want {
		t.Fatalf("got %q want %q", sink.buf.String(), want)
	}
}

func TestEngineSingleBatchScenario(t *testing.T) {
	events := []consumer.ConsumedEvent{
		{Event: []byte(`{"a":1}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "001"}},
		{Event: []byte(`{"a":2}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "002"}},
		{Event: []byte(`{"a":3}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "003"}},
	}
	cfg := Config{
		EventTypeName:  "orders",
		ConsumingAppID: "app-a",
		Cursors:        []cursor.NakadiCursor{{EventType: "orders", Partition: "0", Offset: "000"}},
		BatchLimit:     3,
		BatchTimeout:   30 * time.Second,
		StreamLimit:    3,
	}
	sink := newBufSink()
	eng := NewEngine(cfg, &fakeConsumer{events: events}, sink, blacklist.AllowAll{}, testLogger())
	eng.now = (&stepClock{t: time.Unix(0, 0), step: 0}).Now

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := `{"cursor":{"partition":"0","offset":"003"},"events":[{"a":1},{"a":2},{"a":3}]}` + "\n"
	if sink.buf.String() != want {
		t.Fatalf("got %q want %q", sink.buf.String(), want)
	}
}

func TestEngineStreamLimitCutoffScenario(t *testing.T) {
	events := []consumer.ConsumedEvent{
		{Event: []byte(`{"a":1}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "001"}},
		{Event: []byte(`{"a":2}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "002"}},
		{Event: []byte(`{"a":3}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "003"}},
		{Event: []byte(`{"a":4}`), Position: cursor.NakadiCursor{EventType: "orders", Partition: "0", Offset: "004"}},
	}
	cfg := Config{
		EventTypeName:  "orders",
		ConsumingAppID: "app-a",
		Cursors:        []cursor.NakadiCursor{{EventType: "orders", Partition: "0", Offset: "000"}},
		BatchLimit:     100,
		BatchTimeout:   30 * time.Second,
		StreamLimit:    2,
	}
	sink := newBufSink()
	fc := &fakeConsumer{events: events}
	eng := NewEngine(cfg, fc, sink, blacklist.AllowAll{}, testLogger())
	eng.now = (&stepClock{t: time.Unix(0, 0), step: 0}).Now

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := `{"cursor":{"partition":"0","offset":"002"},"events":[{"a":1},{"a":2}]}` + "\n"
	if sink.buf.String() != want {
		t.Fatalf("got %q want %q", sink.buf.String(), want)
	}
	if fc.pos != 2 {
		t.Fatalf("consumer should have been read exactly twice, got %d reads", fc.pos)
	}
	if !fc.closed {
		t.Fatalf("engine must close the consumer on exit")
	}
}

func TestEngineBlacklistBlockedExitsWithoutDrain(t *testing.T) {
	cfg := Config{
		EventTypeName:  "orders",
		ConsumingAppID: "blocked-app",
		Cursors:        []cursor.NakadiCursor{{EventType: "orders", Partition: "0", Offset: "000"}},
		BatchLimit:     100,
		BatchTimeout:   30 * time.Second,
	}
	sink := newBufSink()
	eng := NewEngine(cfg, &fakeConsumer{}, sink, alwaysBlocked{}, testLogger())
	eng.now = (&stepClock{t: time.Unix(0, 0), step: 0}).Now

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sink.buf.Len() != 0 {
		t.Fatalf("want no output on blacklist-blocked exit, got %q", sink.buf.String())
	}
}

type alwaysBlocked struct{}

func (alwaysBlocked) Blocked(context.Context, string, string) bool { return true }

func TestEngineUpstreamErrorTerminatesStream(t *testing.T) {
	cfg := Config{
		EventTypeName:  "orders",
		ConsumingAppID: "app-a",
		Cursors:        []cursor.NakadiCursor{{EventType: "orders", Partition: "0", Offset: "000"}},
		BatchLimit:     100,
		BatchTimeout:   30 * time.Second,
	}
	sink := newBufSink()
	eng := NewEngine(cfg, &erroringConsumer{}, sink, blacklist.AllowAll{}, testLogger())
	eng.now = (&stepClock{t: time.Unix(0, 0), step: 0}).Now

	err := eng.Run(context.Background())
	if err == nil {
		t.Fatalf("want upstream error propagated for operational logging")
	}
}

type erroringConsumer struct{ closed bool }

func (c *erroringConsumer) ReadEvent(context.Context) (*consumer.ConsumedEvent, error) {
	return nil, errors.New("fetch failed")
}
func (c *erroringConsumer) Close() error { c.closed = true; return nil }
