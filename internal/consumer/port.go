// Package consumer defines the partition consumer port (C3): the abstract
// source of events the stream engine drains, and a Kafka-backed
// implementation of it grounded in the retrieval pack's sarama consumer
// (jittakal-kafka-lab/kafeventconsumer).
package consumer

import (
	"context"
	"errors"

	"github.com/streamhub/streamhub/internal/cursor"
)

// ConsumedEvent is an opaque event drained from a partition, still as
// serialized JSON text. Invariant: Position.Partition equals the partition
// it was drained from.
type ConsumedEvent struct {
	Event    []byte
	Position cursor.NakadiCursor
}

// PartitionConsumer is the base capability every consumer variant exposes:
// a short-blocking read and a close. The stream engine parameterizes over
// this capability set and never downcasts (see spec.md §9, "polymorphic
// consumer").
type PartitionConsumer interface {
	// ReadEvent returns the next available event, or (nil, nil) if none
	// arrived within the implementation's internal poll budget. Any
	// non-nil error is an UpstreamLogError and terminates the stream.
	ReadEvent(ctx context.Context) (*ConsumedEvent, error)
	// Close releases the consumer's resources. Idempotent.
	Close() error
}

// ReassignableEventConsumer extends PartitionConsumer with the capabilities
// a managed-subscription stream needs: observing the current assignment
// (which may change underneath it as the consumer group rebalances) and
// requesting a reassignment to an explicit cursor set (used when a client
// commits new offsets).
type ReassignableEventConsumer interface {
	PartitionConsumer

	// Assignment reports the partitions currently owned by this consumer.
	Assignment() []cursor.NakadiCursor
	// Reassign requests the consumer resume from the given cursors. It is
	// advisory: a rebalancing group may override it shortly after.
	Reassign(ctx context.Context, cursors []cursor.NakadiCursor) error
}

// ErrConsumerClosed is returned by ReadEvent after Close has been called.
var ErrConsumerClosed = errors.New("consumer: closed")
