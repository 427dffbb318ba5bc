package subscription

import (
	"context"
	"testing"
	"time"

	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
)

func newTestStore(t *testing.T) *PebbleStore {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPebbleStore(db)
}

func TestCreateThenGetByKeyRoundTrips(t *testing.T) {
	s := newTestStore(t)
	base := Base{OwningApplication: "app-a", EventTypes: []string{"orders", "refunds"}, ConsumerGroup: "default"}

	sub, err := s.Create(context.Background(), base, "sub-1", time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetByKey(context.Background(), Base{OwningApplication: "app-a", EventTypes: []string{"refunds", "orders"}, ConsumerGroup: "default"})
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got.ID != sub.ID {
		t.Fatalf("got id %q want %q", got.ID, sub.ID)
	}
}

func TestCreateDuplicateReturnsErrDuplicated(t *testing.T) {
	s := newTestStore(t)
	base := Base{OwningApplication: "app-a", EventTypes: []string{"orders"}, ConsumerGroup: "default"}

	if _, err := s.Create(context.Background(), base, "sub-1", 1); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.Create(context.Background(), base, "sub-2", 2); err != ErrDuplicated {
		t.Fatalf("want ErrDuplicated, got %v", err)
	}
}

func TestGetUnknownIDReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListFiltersByOwningApplicationAndPaginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	apps := []string{"app-a", "app-a", "app-b"}
	consumerGroups := []string{"g0", "g1", "g2"}
	ids := []string{"sub-0", "sub-1", "sub-2"}
	for i := range apps {
		base := Base{OwningApplication: apps[i], EventTypes: []string{"orders"}, ConsumerGroup: consumerGroups[i]}
		if _, err := s.Create(ctx, base, ids[i], int64(i)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := s.List(ctx, ListFilter{OwningApplication: "app-a", Offset: 0, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("total count = %d, want 2", page.TotalCount)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}

	page, err = s.List(ctx, ListFilter{OwningApplication: "app-a", Offset: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(page.Items))
	}
}
