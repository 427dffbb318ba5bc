package consumer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/streamhub/streamhub/internal/cursor"
	"github.com/streamhub/streamhub/pkg/log"
)

// pollBudget bounds how long a single ReadEvent call may block, so the
// stream engine's per-partition batchTimeout check fires at its configured
// resolution regardless of how quiet the topic is (spec.md §5).
const pollBudget = 50 * time.Millisecond

// KafkaConfig carries the broker connection settings for both consumer
// variants. Security (SASL/TLS) is intentionally not modeled here: the
// retrieval pack's consumer (jittakal-kafka-lab/kafeventconsumer) supports
// it, but wiring it would pull in an MSK-IAM signer dependency that has no
// other home in this spec — see DESIGN.md.
type KafkaConfig struct {
	Brokers []string
	Version sarama.KafkaVersion
}

func newSaramaConfig(cfg KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	if cfg.Version != (sarama.KafkaVersion{}) {
		sc.Version = cfg.Version
	} else {
		sc.Version = sarama.V2_8_0_0
	}
	sc.Consumer.Return.Errors = true
	return sc
}

// FixedPartitionConsumer implements PartitionConsumer over an explicit,
// caller-assigned set of (topic, partition, offset) positions. It backs the
// low-level cursor-driven stream, where the client supplies its own
// starting cursors and partition assignment never changes for the
// connection's lifetime.
type FixedPartitionConsumer struct {
	logger   log.Logger
	consumer sarama.Consumer
	parts    []sarama.PartitionConsumer
	events   chan *ConsumedEvent
	errs     chan error
	closeMu  sync.Mutex
	closed   bool
}

// NewFixedPartitionConsumer opens a sarama.Consumer and attaches a
// PartitionConsumer for each requested cursor.
func NewFixedPartitionConsumer(cfg KafkaConfig, eventType string, cursors []cursor.NakadiCursor, logger log.Logger) (*FixedPartitionConsumer, error) {
	c, err := sarama.NewConsumer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("consumer: open kafka consumer: %w", err)
	}
	fc := &FixedPartitionConsumer{
		logger:   logger,
		consumer: c,
		events:   make(chan *ConsumedEvent, 256),
		errs:     make(chan error, 1),
	}
	for _, nc := range cursors {
		partition, err := strconv.ParseInt(nc.Partition, 10, 32)
		if err != nil {
			fc.Close()
			return nil, fmt.Errorf("consumer: bad partition %q: %w", nc.Partition, err)
		}
		offset, err := parseOffset(nc.Offset)
		if err != nil {
			fc.Close()
			return nil, fmt.Errorf("consumer: bad offset %q: %w", nc.Offset, err)
		}
		pc, err := c.ConsumePartition(eventType, int32(partition), offset)
		if err != nil {
			fc.Close()
			return nil, fmt.Errorf("consumer: consume partition %d: %w", partition, err)
		}
		fc.parts = append(fc.parts, pc)
		go fc.pump(pc, eventType, nc.Partition)
	}
	return fc, nil
}

func (fc *FixedPartitionConsumer) pump(pc sarama.PartitionConsumer, eventType, partition string) {
	for {
		select {
		case msg, ok := <-pc.Messages():
			if !ok {
				return
			}
			fc.events <- &ConsumedEvent{
				Event: msg.Value,
				Position: cursor.NakadiCursor{
					EventType: eventType,
					Partition: partition,
					Offset:    strconv.FormatInt(msg.Offset, 10),
				},
			}
		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			select {
			case fc.errs <- err:
			default:
			}
			return
		}
	}
}

// ReadEvent returns the next available event across all assigned
// partitions, or (nil, nil) if none arrived within pollBudget.
func (fc *FixedPartitionConsumer) ReadEvent(ctx context.Context) (*ConsumedEvent, error) {
	fc.closeMu.Lock()
	closed := fc.closed
	fc.closeMu.Unlock()
	if closed {
		return nil, ErrConsumerClosed
	}

	timer := time.NewTimer(pollBudget)
	defer timer.Stop()
	select {
	case ev := <-fc.events:
		return ev, nil
	case err := <-fc.errs:
		return nil, fmt.Errorf("consumer: upstream log error: %w", err)
	case <-ctx.Done():
		return nil, nil
	case <-timer.C:
		return nil, nil
	}
}

// Close releases all partition consumers and the underlying client.
func (fc *FixedPartitionConsumer) Close() error {
	fc.closeMu.Lock()
	defer fc.closeMu.Unlock()
	if fc.closed {
		return nil
	}
	fc.closed = true
	for _, pc := range fc.parts {
		_ = pc.Close()
	}
	return fc.consumer.Close()
}

func parseOffset(s string) (int64, error) {
	switch s {
	case "", "BEGIN", "oldest":
		return sarama.OffsetOldest, nil
	case "END", "newest":
		return sarama.OffsetNewest, nil
	default:
		return strconv.ParseInt(s, 10, 64)
	}
}

// GroupConsumer implements ReassignableEventConsumer over a sarama consumer
// group: the assignment is driven by broker-side rebalances rather than a
// caller-supplied cursor set, backing managed subscriptions.
type GroupConsumer struct {
	logger log.Logger
	group  sarama.ConsumerGroup
	topics []string

	events chan *ConsumedEvent
	errs   chan error

	mu         sync.RWMutex
	assignment []cursor.NakadiCursor
	closed     bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewGroupConsumer joins a consumer group for the given topics (event
// types) and starts consuming in the background.
func NewGroupConsumer(cfg KafkaConfig, consumerGroup string, topics []string, logger log.Logger) (*GroupConsumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, consumerGroup, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("consumer: open consumer group: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	gc := &GroupConsumer{
		logger: logger,
		group:  group,
		topics: topics,
		events: make(chan *ConsumedEvent, 256),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	handler := &groupHandler{gc: gc}
	go func() {
		defer close(gc.done)
		for {
			if err := group.Consume(ctx, topics, handler); err != nil {
				select {
				case gc.errs <- err:
				default:
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	go func() {
		for err := range group.Errors() {
			logger.Warn("kafka consumer group error", log.Err(err))
		}
	}()
	return gc, nil
}

type groupHandler struct{ gc *GroupConsumer }

func (h *groupHandler) Setup(s sarama.ConsumerGroupSession) error {
	var assignment []cursor.NakadiCursor
	for topic, partitions := range s.Claims() {
		for _, p := range partitions {
			assignment = append(assignment, cursor.NakadiCursor{
				EventType: topic,
				Partition: strconv.FormatInt(int64(p), 10),
			})
		}
	}
	h.gc.mu.Lock()
	h.gc.assignment = assignment
	h.gc.mu.Unlock()
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.gc.events <- &ConsumedEvent{
				Event: msg.Value,
				Position: cursor.NakadiCursor{
					EventType: msg.Topic,
					Partition: strconv.FormatInt(int64(msg.Partition), 10),
					Offset:    strconv.FormatInt(msg.Offset, 10),
				},
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// ReadEvent returns the next available event, or (nil, nil) if none arrived
// within pollBudget.
func (gc *GroupConsumer) ReadEvent(ctx context.Context) (*ConsumedEvent, error) {
	gc.mu.RLock()
	closed := gc.closed
	gc.mu.RUnlock()
	if closed {
		return nil, ErrConsumerClosed
	}

	timer := time.NewTimer(pollBudget)
	defer timer.Stop()
	select {
	case ev := <-gc.events:
		return ev, nil
	case err := <-gc.errs:
		return nil, fmt.Errorf("consumer: upstream log error: %w", err)
	case <-ctx.Done():
		return nil, nil
	case <-timer.C:
		return nil, nil
	}
}

// Assignment reports the partitions currently owned by this session.
func (gc *GroupConsumer) Assignment() []cursor.NakadiCursor {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	out := make([]cursor.NakadiCursor, len(gc.assignment))
	copy(out, gc.assignment)
	return out
}

// Reassign is advisory for a consumer-group-backed consumer: the group
// protocol owns partition assignment, so Reassign only replaces the
// cursors that Assignment reports. It does not seek any partition to the
// given offsets and does not force a rebalance; the next rebalance's
// Setup overwrites the recorded cursors.
func (gc *GroupConsumer) Reassign(ctx context.Context, cursors []cursor.NakadiCursor) error {
	gc.mu.Lock()
	gc.assignment = cursors
	gc.mu.Unlock()
	return nil
}

// Close stops consuming and releases the consumer group's resources.
func (gc *GroupConsumer) Close() error {
	gc.mu.Lock()
	gc.closed = true
	gc.mu.Unlock()
	gc.cancel()
	<-gc.done
	return gc.group.Close()
}
