package cursor

import "testing"

func TestToWireDropsEventType(t *testing.T) {
	nc := NakadiCursor{EventType: "orders.created", Partition: "0", Offset: "001"}
	wire := ToWire(nc)
	if wire.Partition != "0" || wire.Offset != "001" {
		t.Fatalf("unexpected wire cursor: %+v", wire)
	}
}

func TestWithOffsetDoesNotMutateReceiver(t *testing.T) {
	nc := NakadiCursor{EventType: "orders.created", Partition: "0", Offset: "001"}
	next := nc.WithOffset("002")
	if nc.Offset != "001" {
		t.Fatalf("receiver mutated: %+v", nc)
	}
	if next.Offset != "002" || next.Partition != "0" || next.EventType != "orders.created" {
		t.Fatalf("unexpected advanced cursor: %+v", next)
	}
}

func TestKeyDistinguishesEventTypeAndPartition(t *testing.T) {
	a := NakadiCursor{EventType: "orders.created", Partition: "0"}
	b := NakadiCursor{EventType: "orders.created", Partition: "1"}
	c := NakadiCursor{EventType: "orders.cancelled", Partition: "0"}
	if a.Key() == b.Key() || a.Key() == c.Key() {
		t.Fatalf("expected distinct keys, got a=%q b=%q c=%q", a.Key(), b.Key(), c.Key())
	}
}
