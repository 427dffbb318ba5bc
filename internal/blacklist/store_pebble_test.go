package blacklist

import (
	"testing"

	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
)

func newTestRuleStore(t *testing.T) *PebbleRuleStore {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPebbleRuleStore(db)
}

func TestPebbleRuleStorePutAndLoadAll(t *testing.T) {
	s := newTestRuleStore(t)
	if err := s.Put(Rule{ID: "r1", Expression: `event_type == "orders"`}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(Rule{ID: "r2", Expression: `app == "acme"`}); err != nil {
		t.Fatalf("put: %v", err)
	}

	rules, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("want 2 rules, got %d", len(rules))
	}
}

func TestPebbleRuleStoreRemove(t *testing.T) {
	s := newTestRuleStore(t)
	if err := s.Put(Rule{ID: "r1", Expression: `event_type == "orders"`}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Remove("r1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rules, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(rules) != 0 {
		t.Fatalf("want 0 rules after remove, got %d", len(rules))
	}
}

func TestPebbleRuleStoreRemoveMissingIsNoop(t *testing.T) {
	s := newTestRuleStore(t)
	if err := s.Remove("never-existed"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}
