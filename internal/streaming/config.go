package streaming

import (
	"errors"
	"time"

	"github.com/streamhub/streamhub/internal/cursor"
)

// Config is the immutable set of per-connection parameters (C6). It is
// built once at request start by the HTTP layer and owns no external
// resources; it is discarded at request end.
type Config struct {
	EventTypeName  string
	ConsumingAppID string
	// Cursors gives one NakadiCursor per assigned partition: the starting
	// position the engine begins reading from.
	Cursors []cursor.NakadiCursor

	// BatchLimit caps the number of events per emitted record. Must be > 0.
	BatchLimit int
	// BatchTimeout is the heartbeat bound per partition. Must be > 0 at
	// this layer — see the Open Questions in spec.md: batchTimeout=0 would
	// flush every iteration in the source, so this layer rejects it.
	BatchTimeout time.Duration
	// StreamLimit caps total events across the whole connection. 0 = unlimited.
	StreamLimit int
	// StreamTimeout caps total connection wall-time. 0 = unlimited.
	StreamTimeout time.Duration
	// StreamKeepAliveLimit caps consecutive empty flushes per partition
	// before the engine exits. 0 = unlimited.
	StreamKeepAliveLimit int
}

// Validate enforces the invariants callers (the HTTP binding layer) must
// satisfy before constructing an Engine.
func (c Config) Validate() error {
	if c.EventTypeName == "" {
		return errors.New("streaming: event type name is required")
	}
	if len(c.Cursors) == 0 {
		return errors.New("streaming: at least one partition cursor is required")
	}
	if c.BatchLimit <= 0 {
		return errors.New("streaming: batch_limit must be > 0")
	}
	if c.BatchTimeout <= 0 {
		return errors.New("streaming: batch_flush_timeout must be > 0")
	}
	if c.StreamLimit < 0 {
		return errors.New("streaming: stream_limit must be >= 0")
	}
	if c.StreamTimeout < 0 {
		return errors.New("streaming: stream_timeout must be >= 0")
	}
	if c.StreamKeepAliveLimit < 0 {
		return errors.New("streaming: stream_keep_alive_limit must be >= 0")
	}
	return nil
}
