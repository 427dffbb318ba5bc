package subscription

import (
	"sort"
	"strings"
)

// Pebble key layout, grounded in the teacher's flat prefixed-key
// conventions (internal/namespace, internal/eventlog/keys.go): one prefix
// per logical index, key suffix carries the identity.
var (
	idPrefix     = []byte("sub/id/")
	uniquePrefix = []byte("sub/uniq/")
)

func idKey(id string) []byte {
	return append(append([]byte(nil), idPrefix...), id...)
}

// canonicalKey builds the unique-index key for a Base. eventTypes is sorted
// lexicographically before joining so that {a,b} and {b,a} collide, per
// spec.md §6's persisted-state-layout requirement.
func canonicalKey(base Base) string {
	types := append([]string(nil), base.EventTypes...)
	sort.Strings(types)
	return base.OwningApplication + "\x00" + strings.Join(types, ",") + "\x00" + base.ConsumerGroup
}

func uniqueKey(base Base) []byte {
	return append(append([]byte(nil), uniquePrefix...), canonicalKey(base)...)
}
