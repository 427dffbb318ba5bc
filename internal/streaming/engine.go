package streaming

import (
	"context"
	"time"

	"github.com/streamhub/streamhub/internal/blacklist"
	"github.com/streamhub/streamhub/internal/consumer"
	"github.com/streamhub/streamhub/internal/cursor"
	"github.com/streamhub/streamhub/pkg/log"
)

// partitionState is the per-partition working set the main loop mutates,
// built once at loop start from Config.Cursors and never re-keyed
// afterward (spec.md §9: "a dense structure built once at loop start").
type partitionState struct {
	key             string
	currentBatch    [][]byte
	batchStartTime  time.Time
	keepAliveInARow int
	latestOffset    cursor.NakadiCursor
}

// Engine is the stream engine (C5): the per-connection loop that drains
// C3, assembles per-partition batches, frames them via C2, and honors the
// four termination conditions in spec.md §4.2. One Engine serves exactly
// one connection and is discarded after Run returns.
type Engine struct {
	config    Config
	consumer  consumer.PartitionConsumer
	sink      Sink
	blacklist blacklist.Checker
	logger    log.Logger

	now func() time.Time
}

// NewEngine builds an Engine. cfg MUST already have passed Validate.
func NewEngine(cfg Config, c consumer.PartitionConsumer, sink Sink, bl blacklist.Checker, logger log.Logger) *Engine {
	if bl == nil {
		bl = blacklist.AllowAll{}
	}
	return &Engine{
		config:    cfg,
		consumer:  c,
		sink:      sink,
		blacklist: bl,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the main loop to completion. Per spec.md §7's propagation
// policy, Run never surfaces a client-visible error: by the time it
// starts, response headers are already on the wire. It always closes the
// consumer before returning. The returned error is for operational
// logging/metrics only (e.g. by the HTTP handler's access log), never for
// building an HTTP response.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if err := e.consumer.Close(); err != nil {
			e.logger.Warn("partition consumer close failed", log.Err(err))
		}
	}()

	startTime := e.now()
	order := make([]string, 0, len(e.config.Cursors))
	states := make(map[string]*partitionState, len(e.config.Cursors))
	for _, c := range e.config.Cursors {
		k := c.Key()
		order = append(order, k)
		states[k] = &partitionState{
			key:            k,
			batchStartTime: startTime,
			latestOffset:   c,
		}
	}

	var messagesRead int

	for {
		// Step 1: termination guard.
		if !Ready(e.sink) {
			e.logger.Info("stream terminating, client disconnected",
				log.Str("event_type", e.config.EventTypeName))
			return nil
		}
		if e.blacklist.Blocked(ctx, e.config.EventTypeName, e.config.ConsumingAppID) {
			e.logger.Info("stream terminating, consumption blacklisted",
				log.Str("event_type", e.config.EventTypeName),
				log.Str("consuming_app", e.config.ConsumingAppID))
			return nil
		}

		// Step 2: read one event.
		ev, err := e.consumer.ReadEvent(ctx)
		if err != nil {
			e.logger.Error("upstream log read failed", log.Err(err))
			return err
		}
		if ev != nil {
			if st, ok := states[ev.Position.Key()]; ok {
				st.latestOffset = ev.Position
				st.currentBatch = append(st.currentBatch, ev.Event)
				st.keepAliveInARow = 0
				messagesRead++
			}
		}

		// Step 3: per-partition flush pass, in the order captured at loop start.
		now := e.now()
		for _, k := range order {
			st := states[k]
			elapsed := now.Sub(st.batchStartTime)
			if elapsed >= e.config.BatchTimeout || len(st.currentBatch) >= e.config.BatchLimit {
				wasEmpty := len(st.currentBatch) == 0
				if _, err := WriteBatch(e.sink, cursor.ToWire(st.latestOffset), st.currentBatch); err != nil {
					e.logger.Info("stream terminating, sink write failed", log.Err(err))
					return nil
				}
				if wasEmpty {
					st.keepAliveInARow++
				}
				st.currentBatch = nil
				st.batchStartTime = now
			}
		}

		// Step 4: keep-alive terminator.
		if e.config.StreamKeepAliveLimit != 0 {
			allQuiet := true
			for _, k := range order {
				if states[k].keepAliveInARow < e.config.StreamKeepAliveLimit {
					allQuiet = false
					break
				}
			}
			if allQuiet {
				return nil
			}
		}

		// Step 5: global terminators.
		timedOut := e.config.StreamTimeout != 0 && now.Sub(startTime) >= e.config.StreamTimeout
		limitReached := e.config.StreamLimit != 0 && messagesRead >= e.config.StreamLimit
		if timedOut || limitReached {
			for _, k := range order {
				st := states[k]
				if len(st.currentBatch) > 0 {
					if _, err := WriteBatch(e.sink, cursor.ToWire(st.latestOffset), st.currentBatch); err != nil {
						e.logger.Info("stream terminating, sink write failed during final flush", log.Err(err))
						return nil
					}
					st.currentBatch = nil
				}
			}
			return nil
		}

		// Step 6: iterate.
	}
}
