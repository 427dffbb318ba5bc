package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/streamhub/streamhub/internal/blacklist"
	"github.com/streamhub/streamhub/internal/consumer"
	"github.com/streamhub/streamhub/internal/cursor"
	"github.com/streamhub/streamhub/internal/problem"
	"github.com/streamhub/streamhub/internal/streaming"
	"github.com/streamhub/streamhub/pkg/id"
	"github.com/streamhub/streamhub/pkg/log"
)

// Streaming binds the low-level cursor-driven stream (C5) to HTTP. The
// newConsumer func opens a partition consumer for the given event type and
// starting cursors; the HTTP layer owns resolving partition assignment
// into a concrete set of cursors (out of scope per spec.md §1), and only
// wires the result into an Engine.
type Streaming struct {
	newConsumer func(eventType string, cursors []cursor.NakadiCursor) (consumer.PartitionConsumer, error)
	blacklist   blacklist.Checker
	defaults    streaming.Config
	ids         *id.Generator
	logger      log.Logger
}

// NewStreaming builds a Streaming controller. defaults supplies the
// starting batch/stream parameters; query parameters on each request
// replace them without any upper bound, and the result is checked only by
// Config.Validate before it is handed to the engine.
func NewStreaming(newConsumer func(eventType string, cursors []cursor.NakadiCursor) (consumer.PartitionConsumer, error), bl blacklist.Checker, defaults streaming.Config, ids *id.Generator, logger log.Logger) *Streaming {
	return &Streaming{newConsumer: newConsumer, blacklist: bl, defaults: defaults, ids: ids, logger: logger}
}

// Register mounts the low-level stream endpoint on mux.
func (c *Streaming) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /event-types/{name}/events", c.stream)
}

func (c *Streaming) stream(w http.ResponseWriter, r *http.Request) {
	eventType := r.PathValue("name")
	consumingApp := r.Header.Get("X-Consumer-App")

	cursors, err := parseCursorsHeader(r.Header.Get("X-Cursors"), eventType)
	if err != nil {
		problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, err.Error())
		return
	}
	if len(cursors) == 0 {
		problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, "at least one cursor is required")
		return
	}

	cfg := c.defaults
	cfg.EventTypeName = eventType
	cfg.ConsumingAppID = consumingApp
	cfg.Cursors = cursors
	if v := r.URL.Query().Get("batch_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchLimit = n
		}
	}
	if v := r.URL.Query().Get("stream_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamLimit = n
		}
	}
	if v := r.URL.Query().Get("stream_timeout"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamTimeout = time.Duration(n) * time.Second
		}
	}
	if v := r.URL.Query().Get("stream_keep_alive_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StreamKeepAliveLimit = n
		}
	}

	if err := cfg.Validate(); err != nil {
		problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, err.Error())
		return
	}

	con, err := c.newConsumer(eventType, cursors)
	if err != nil {
		problem.Write(w, problem.UpstreamLogError, "failed to open partition consumer")
		return
	}

	w.Header().Set("Content-Type", "application/x-json-stream")
	w.Header().Set("X-Stream-Id", c.ids.Next().String())
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	sink := streaming.NewHTTPSink(w, r)
	eng := streaming.NewEngine(cfg, con, sink, c.blacklist, c.logger)
	if err := eng.Run(r.Context()); err != nil {
		c.logger.Error("stream exited with error", log.Err(err), log.Str("event_type", eventType))
	}
}

func parseCursorsHeader(raw, eventType string) ([]cursor.NakadiCursor, error) {
	if raw == "" {
		return nil, nil
	}
	var wire []struct {
		Partition string `json:"partition"`
		Offset    string `json:"offset"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, err
	}
	cursors := make([]cursor.NakadiCursor, len(wire))
	for i, c := range wire {
		cursors[i] = cursor.NakadiCursor{EventType: eventType, Partition: c.Partition, Offset: c.Offset}
	}
	return cursors, nil
}
