package subscription

import (
	"context"
	"errors"
)

// Error kinds a caller must be able to distinguish, per spec.md §7.
var (
	// ErrDuplicated is the internal signal a Store returns when a create
	// collides with an existing row for the same uniqueness key U. It is
	// never surfaced to the client directly — C8 translates it into an
	// idempotent 200 OK.
	ErrDuplicated = errors.New("subscription: duplicated subscription")
	// ErrNotFound is returned by Store.Get/GetByKey when no row matches.
	ErrNotFound = errors.New("subscription: not found")
	// ErrStoreUnavailable signals the backing database is unreachable.
	ErrStoreUnavailable = errors.New("subscription: store unavailable")
)

// Store persists and looks up subscriptions with unique-key semantics (C7).
// Implementations MUST guarantee that of any concurrent pair of Create
// calls sharing the same Base, at most one succeeds and the other observes
// ErrDuplicated.
type Store interface {
	Create(ctx context.Context, base Base, id string, createdAtUnixMs int64) (Subscription, error)
	Get(ctx context.Context, id string) (Subscription, error)
	GetByKey(ctx context.Context, base Base) (Subscription, error)
	List(ctx context.Context, filter ListFilter) (Page, error)
}

// EventTypeRepository answers whether an event-type name is known, the
// external collaborator named in spec.md §1/§4.3. ReadScopes returns the
// scopes required to consume the named event type.
type EventTypeRepository interface {
	Exists(ctx context.Context, name string) (bool, error)
	ReadScopes(ctx context.Context, name string) ([]string, error)
}

// ApplicationChecker answers whether an owning-application identity is
// known, gated by §4.5's CHECK_OWNING_APPLICATION toggle.
type ApplicationChecker interface {
	Exists(ctx context.Context, owningApplication string) (bool, error)
}

// ErrScopeMismatch is returned by ScopeChecker when the caller's principal
// does not satisfy the required scopes.
var ErrScopeMismatch = errors.New("subscription: scope mismatch")

// ScopeChecker enforces that a client principal carries the read scopes an
// event type requires.
type ScopeChecker interface {
	Check(ctx context.Context, principal string, requiredScopes []string) error
}
