package subscription

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
)

// PebbleStore implements Store over the shared runtime database, adapted
// from the teacher's keyed-record idiom (internal/namespace/namespace.go's
// EnsureNamespace, internal/eventlog/keys.go's prefix layout).
//
// A single in-process mutex serializes the check-then-write across the
// unique index and the id-keyed record, so Create's duplication signal is
// race-free for any number of concurrent callers within this instance.
// Pebble itself offers no native "insert if absent" across two related
// keys, so the correctness of the uniqueness constraint is a property of
// this store, not of the underlying engine.
type PebbleStore struct {
	db *pebblestore.DB
	mu sync.Mutex
}

// NewPebbleStore wraps db as a Store.
func NewPebbleStore(db *pebblestore.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

func (s *PebbleStore) Create(ctx context.Context, base Base, id string, createdAtUnixMs int64) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uk := uniqueKey(base)
	if existing, err := s.db.Get(uk); err == nil && len(existing) > 0 {
		return Subscription{}, ErrDuplicated
	} else if err != nil && err != pebble.ErrNotFound {
		return Subscription{}, ErrStoreUnavailable
	}

	sub := Subscription{
		Base:      base,
		ID:        id,
		CreatedAt: time.UnixMilli(createdAtUnixMs).UTC(),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return Subscription{}, err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(uk, []byte(id), nil); err != nil {
		return Subscription{}, ErrStoreUnavailable
	}
	if err := b.Set(idKey(id), payload, nil); err != nil {
		return Subscription{}, ErrStoreUnavailable
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return Subscription{}, ErrStoreUnavailable
	}
	return sub, nil
}

func (s *PebbleStore) Get(ctx context.Context, id string) (Subscription, error) {
	b, err := s.db.Get(idKey(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, ErrStoreUnavailable
	}
	var sub Subscription
	if err := json.Unmarshal(b, &sub); err != nil {
		return Subscription{}, ErrStoreUnavailable
	}
	return sub, nil
}

func (s *PebbleStore) GetByKey(ctx context.Context, base Base) (Subscription, error) {
	uk := uniqueKey(base)
	idBytes, err := s.db.Get(uk)
	if err != nil {
		if err == pebble.ErrNotFound {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, ErrStoreUnavailable
	}
	return s.Get(ctx, string(idBytes))
}

// List performs a linear scan over the id-prefixed keyspace. This is
// appropriate at the scale the teacher's own pebble wrapper targets
// (single-node, moderate cardinality); a secondary sorted index would be
// the next step if subscription counts grow into the millions.
func (s *PebbleStore) List(ctx context.Context, filter ListFilter) (Page, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: idPrefix, UpperBound: prefixUpperBound(idPrefix)})
	if err != nil {
		return Page{}, ErrStoreUnavailable
	}
	defer it.Close()

	var matched []Subscription
	for it.First(); it.Valid(); it.Next() {
		var sub Subscription
		if err := json.Unmarshal(it.Value(), &sub); err != nil {
			continue
		}
		if filter.OwningApplication != "" && sub.OwningApplication != filter.OwningApplication {
			continue
		}
		if len(filter.EventTypes) > 0 && !containsAny(sub.EventTypes, filter.EventTypes) {
			continue
		}
		matched = append(matched, sub)
	}

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return Page{Items: matched[start:end], TotalCount: total}, nil
}

func containsAny(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func prefixUpperBound(prefix []byte) []byte {
	ub := append([]byte(nil), prefix...)
	for i := len(ub) - 1; i >= 0; i-- {
		if ub[i] != 0xff {
			ub[i]++
			return ub[:i+1]
		}
	}
	return nil
}
