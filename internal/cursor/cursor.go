// Package cursor converts between storage-level partition positions and the
// wire-level view clients see on a stream connection.
package cursor

// NakadiCursor is the internal, storage-facing position of an event within a
// partitioned log. Offset is an opaque token minted by the partition
// consumer port (internal/consumer); ordering within a partition is total,
// across partitions is undefined.
type NakadiCursor struct {
	EventType string
	Partition string
	Offset    string
}

// Cursor is the externally visible, wire-level resumption token. It carries
// no event-type: the event-type is already fixed by the connection the
// client opened.
type Cursor struct {
	Partition string `json:"partition"`
	Offset    string `json:"offset"`
}

// ToWire projects a NakadiCursor onto the wire view produced for clients.
func ToWire(nc NakadiCursor) Cursor {
	return Cursor{Partition: nc.Partition, Offset: nc.Offset}
}

// WithOffset returns a copy of nc with the offset replaced. Used by the
// stream engine to advance latestOffset[partition] as events are observed,
// without ever comparing offsets itself (the log port is the only
// authority on ordering — see internal/consumer).
func (nc NakadiCursor) WithOffset(offset string) NakadiCursor {
	nc.Offset = offset
	return nc
}

// Key returns the canonical identity of the partition this cursor names,
// independent of offset. Used to index per-partition engine state.
func (nc NakadiCursor) Key() string {
	return nc.EventType + "/" + nc.Partition
}
