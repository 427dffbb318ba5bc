// Package subscription implements the managed-subscription surface: the
// store port (C7), the idempotent create-or-get protocol (C8), and the
// stats projector (C9).
package subscription

import "time"

// Base is the client-supplied identity of a subscription: the triple that
// the store's uniqueness key is built from (spec.md §3, §6).
type Base struct {
	OwningApplication string   `json:"owning_application"`
	EventTypes        []string `json:"event_types"`
	ConsumerGroup     string   `json:"consumer_group"`
}

// Subscription is the full, persisted record.
type Subscription struct {
	Base
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter narrows a List call. Zero-value OwningApplication or empty
// EventTypes mean "no filter" on that dimension.
type ListFilter struct {
	OwningApplication string
	EventTypes        []string
	Offset            int
	Limit             int
}

// Page is a paginated list result, mirroring the `{items, _links}` shape
// spec.md §6 requires of GET /subscriptions.
type Page struct {
	Items      []Subscription
	TotalCount int
}

// EventTypeStats is one element of the `items` array returned by
// GET /subscriptions/{id}/stats (C9), aggregating live lag per event type.
type EventTypeStats struct {
	EventType  string           `json:"event_type"`
	Partitions []PartitionStats `json:"partitions"`
}

// PartitionStats reports the consumer's lag against the partition's head
// for a single partition of one event type.
type PartitionStats struct {
	Partition          string `json:"partition"`
	State              string `json:"state"`
	UnconsumedEvents   int64  `json:"unconsumed_events"`
	ConsumerLagSeconds int64  `json:"consumer_lag_seconds,omitempty"`
}
