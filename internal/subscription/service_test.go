package subscription

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/streamhub/streamhub/internal/toggles"
	"github.com/streamhub/streamhub/pkg/id"
	"github.com/streamhub/streamhub/pkg/log"
)

func newTestService(t *testing.T, gates toggles.Static, eventTypes *InMemoryEventTypes, apps *InMemoryApplications, scopes ScopeChecker) *Service {
	t.Helper()
	store := newTestStore(t)
	return NewService(store, eventTypes, apps, scopes, gates, id.NewGenerator(), log.NewLogger(), nil)
}

func TestCreateOrGetFirstCallCreates(t *testing.T) {
	eventTypes := NewInMemoryEventTypes(map[string][]string{"orders": nil})
	svc := newTestService(t, toggles.FromDefaults(true, false, true), eventTypes, nil, AllowAllScopes{})

	base := Base{OwningApplication: "app-a", EventTypes: []string{"orders"}, ConsumerGroup: "g1"}
	result, err := svc.CreateOrGet(context.Background(), base, "principal")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !result.Created {
		t.Fatalf("want Created=true on first call")
	}
}

func TestCreateOrGetSecondCallIsIdempotent(t *testing.T) {
	eventTypes := NewInMemoryEventTypes(map[string][]string{"orders": nil})
	svc := newTestService(t, toggles.FromDefaults(true, false, true), eventTypes, nil, AllowAllScopes{})

	base := Base{OwningApplication: "app-a", EventTypes: []string{"orders"}, ConsumerGroup: "g1"}
	first, err := svc.CreateOrGet(context.Background(), base, "principal")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same U submitted again: must collide and return the existing subscription.
	second, err := svc.CreateOrGet(context.Background(), Base{OwningApplication: "app-a", EventTypes: []string{"orders"}, ConsumerGroup: "g1"}, "principal")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Created {
		t.Fatalf("want Created=false on idempotent collision")
	}
	if second.Subscription.ID != first.Subscription.ID {
		t.Fatalf("want same subscription id, got %q vs %q", second.Subscription.ID, first.Subscription.ID)
	}
}

func TestCreateOrGetRejectsMissingEventTypes(t *testing.T) {
	eventTypes := NewInMemoryEventTypes(map[string][]string{"orders": nil})
	svc := newTestService(t, toggles.FromDefaults(true, false, true), eventTypes, nil, AllowAllScopes{})

	base := Base{OwningApplication: "app-a", EventTypes: []string{"orders", "ghost-b", "ghost-a"}, ConsumerGroup: "g1"}
	_, err := svc.CreateOrGet(context.Background(), base, "principal")
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("want *ClientError, got %v (%T)", err, err)
	}
	if !strings.Contains(clientErr.Message, "'ghost-a','ghost-b'") {
		t.Fatalf("want lexicographically sorted missing names, got %q", clientErr.Message)
	}
}

func TestCreateOrGetChecksOwningApplicationWhenGated(t *testing.T) {
	eventTypes := NewInMemoryEventTypes(map[string][]string{"orders": nil})
	apps := NewInMemoryApplications(nil)
	svc := newTestService(t, toggles.FromDefaults(true, true, true), eventTypes, apps, AllowAllScopes{})

	base := Base{OwningApplication: "unknown-app", EventTypes: []string{"orders"}, ConsumerGroup: "g1"}
	_, err := svc.CreateOrGet(context.Background(), base, "principal")
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("want *ClientError, got %v", err)
	}
	if clientErr.Message != "owning_application doesn't exist" {
		t.Fatalf("unexpected message: %q", clientErr.Message)
	}
}

func TestCreateOrGetSkipsOwningApplicationCheckWhenGateOff(t *testing.T) {
	eventTypes := NewInMemoryEventTypes(map[string][]string{"orders": nil})
	apps := NewInMemoryApplications(nil)
	svc := newTestService(t, toggles.FromDefaults(true, false, true), eventTypes, apps, AllowAllScopes{})

	base := Base{OwningApplication: "unknown-app", EventTypes: []string{"orders"}, ConsumerGroup: "g1"}
	if _, err := svc.CreateOrGet(context.Background(), base, "principal"); err != nil {
		t.Fatalf("want success with gate off, got %v", err)
	}
}

type refusingScopes struct{}

func (refusingScopes) Check(context.Context, string, []string) error {
	return errors.New("missing required scope")
}

func TestCreateOrGetPropagatesScopeMismatch(t *testing.T) {
	eventTypes := NewInMemoryEventTypes(map[string][]string{"orders": {"orders.read"}})
	svc := newTestService(t, toggles.FromDefaults(true, false, true), eventTypes, nil, refusingScopes{})

	base := Base{OwningApplication: "app-a", EventTypes: []string{"orders"}, ConsumerGroup: "g1"}
	_, err := svc.CreateOrGet(context.Background(), base, "principal")
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Kind != KindScopeMismatch {
		t.Fatalf("want KindScopeMismatch ClientError, got %v", err)
	}
}

func TestListRejectsLimitOutOfRange(t *testing.T) {
	svc := newTestService(t, toggles.FromDefaults(true, false, true), NewInMemoryEventTypes(nil), nil, AllowAllScopes{})

	if _, err := svc.List(context.Background(), ListFilter{Limit: 0}); err == nil {
		t.Fatalf("want error for limit below 1")
	}
	if _, err := svc.List(context.Background(), ListFilter{Limit: 1001}); err == nil {
		t.Fatalf("want error for limit above 1000")
	}
}

func TestListRejectsNegativeOffset(t *testing.T) {
	svc := newTestService(t, toggles.FromDefaults(true, false, true), NewInMemoryEventTypes(nil), nil, AllowAllScopes{})

	if _, err := svc.List(context.Background(), ListFilter{Limit: 20, Offset: -1}); err == nil {
		t.Fatalf("want error for negative offset")
	}
}

func TestListAcceptsBoundaryValues(t *testing.T) {
	svc := newTestService(t, toggles.FromDefaults(true, false, true), NewInMemoryEventTypes(nil), nil, AllowAllScopes{})

	if _, err := svc.List(context.Background(), ListFilter{Limit: 1, Offset: 0}); err != nil {
		t.Fatalf("limit=1 offset=0 should be valid: %v", err)
	}
	if _, err := svc.List(context.Background(), ListFilter{Limit: 1000, Offset: 0}); err != nil {
		t.Fatalf("limit=1000 should be valid: %v", err)
	}
}
