package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/streamhub/streamhub/internal/toggles"
	"github.com/streamhub/streamhub/pkg/id"
	"github.com/streamhub/streamhub/pkg/log"
)

// ClientError is a validation/authorization failure that should be
// surfaced to the HTTP caller directly, carrying the problem category
// named in spec.md §7.
type ClientError struct {
	Kind    Kind
	Message string
}

func (e *ClientError) Error() string { return e.Message }

// Kind classifies a ClientError for the HTTP adapter's status mapping.
type Kind int

const (
	KindUnprocessable Kind = iota
	KindScopeMismatch
	KindGateDisabled
)

// Service orchestrates subscription creation, lookup, listing, and stats
// over a Store plus the three external collaborators named in spec.md §2
// ("C8 is a stateless request-scoped orchestration over C7, an event-type
// repository, an application-existence port, and a scope checker").
type Service struct {
	store      Store
	eventTypes EventTypeRepository
	apps       ApplicationChecker
	scopes     ScopeChecker
	toggles    toggles.Service
	ids        *id.Generator
	logger     log.Logger
	stats      StatsProjector
}

// NewService constructs a Service. stats may be nil; Stats then returns an
// empty result set rather than failing (no live consumer state to project
// is a legitimate, if unhelpful, answer).
func NewService(store Store, eventTypes EventTypeRepository, apps ApplicationChecker, scopes ScopeChecker, toggleSvc toggles.Service, ids *id.Generator, logger log.Logger, stats StatsProjector) *Service {
	return &Service{
		store:      store,
		eventTypes: eventTypes,
		apps:       apps,
		scopes:     scopes,
		toggles:    toggleSvc,
		ids:        ids,
		logger:     logger,
		stats:      stats,
	}
}

// CreateOrGetResult reports whether the subscription was newly created
// (true → 201) or already existed (false → 200), per spec.md §4.3.
type CreateOrGetResult struct {
	Subscription Subscription
	Created      bool
}

// CreateOrGet implements the algorithm in spec.md §4.3 exactly.
func (s *Service) CreateOrGet(ctx context.Context, base Base, principal string) (CreateOrGetResult, error) {
	// Step 1: owning-application existence, gated by CHECK_OWNING_APPLICATION.
	if s.toggles.Enabled(ctx, toggles.CheckOwningApplication) && s.apps != nil {
		known, err := s.apps.Exists(ctx, base.OwningApplication)
		if err != nil {
			return CreateOrGetResult{}, ErrStoreUnavailable
		}
		if !known {
			return CreateOrGetResult{}, &ClientError{
				Kind:    KindUnprocessable,
				Message: "owning_application doesn't exist",
			}
		}
	}

	// Step 2: every requested event type must be known; collect all
	// missing names before failing (spec.md §8 scenario 5).
	var missing []string
	scopesNeeded := make(map[string]struct{})
	for _, et := range base.EventTypes {
		exists, err := s.eventTypes.Exists(ctx, et)
		if err != nil {
			return CreateOrGetResult{}, ErrStoreUnavailable
		}
		if !exists {
			missing = append(missing, et)
			continue
		}
		readScopes, err := s.eventTypes.ReadScopes(ctx, et)
		if err != nil {
			return CreateOrGetResult{}, ErrStoreUnavailable
		}
		for _, sc := range readScopes {
			scopesNeeded[sc] = struct{}{}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		quoted := make([]string, len(missing))
		for i, m := range missing {
			quoted[i] = "'" + m + "'"
		}
		return CreateOrGetResult{}, &ClientError{
			Kind:    KindUnprocessable,
			Message: fmt.Sprintf("Failed to create subscription, event type(s) not found: %s", strings.Join(quoted, ",")),
		}
	}

	// Step 3: scope enforcement over the union of required read scopes.
	if s.scopes != nil && len(scopesNeeded) > 0 {
		required := make([]string, 0, len(scopesNeeded))
		for sc := range scopesNeeded {
			required = append(required, sc)
		}
		sort.Strings(required)
		if err := s.scopes.Check(ctx, principal, required); err != nil {
			return CreateOrGetResult{}, &ClientError{Kind: KindScopeMismatch, Message: err.Error()}
		}
	}

	// Step 4: create.
	newID := s.ids.Next().String()
	sub, err := s.store.Create(ctx, base, newID, id.NowMs())
	if err == nil {
		return CreateOrGetResult{Subscription: sub, Created: true}, nil
	}
	if !errors.Is(err, ErrDuplicated) {
		return CreateOrGetResult{}, err
	}

	// Step 5: duplication — recover via idempotent lookup by U.
	existing, lookupErr := s.store.GetByKey(ctx, base)
	if lookupErr == nil {
		return CreateOrGetResult{Subscription: existing, Created: false}, nil
	}
	if errors.Is(lookupErr, ErrNotFound) {
		// A true race lost to a concurrent delete: surface the original
		// duplication signal rather than the lookup's not-found.
		s.logger.Info("subscription create raced with a delete", log.Str("owning_application", base.OwningApplication))
		return CreateOrGetResult{}, err
	}
	s.logger.Error("subscription duplication lookup failed", log.Err(lookupErr))
	return CreateOrGetResult{}, ErrStoreUnavailable
}

// Get fetches a single subscription by id (the §6 endpoint supplemented
// from original_source/ — see SPEC_FULL.md).
func (s *Service) Get(ctx context.Context, id string) (Subscription, error) {
	return s.store.Get(ctx, id)
}

// List implements spec.md §4.4's listing contract, including pagination
// bounds validation.
func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	if filter.Limit < 1 || filter.Limit > 1000 {
		return Page{}, &ClientError{
			Kind:    KindUnprocessable,
			Message: "'limit' parameter should have value from 1 to 1000",
		}
	}
	if filter.Offset < 0 {
		return Page{}, &ClientError{
			Kind:    KindUnprocessable,
			Message: "'offset' parameter can't be lower than 0",
		}
	}
	page, err := s.store.List(ctx, filter)
	if err != nil {
		return Page{}, ErrStoreUnavailable
	}
	return page, nil
}

// StatsProjector composes live per-event-type stats from consumer state
// (C9). It is a narrow seam so Service stays independent of how the
// consumer port reports lag.
type StatsProjector interface {
	Project(ctx context.Context, sub Subscription) ([]EventTypeStats, error)
}

// Stats implements spec.md §4.4's stats endpoint.
func (s *Service) Stats(ctx context.Context, id string) ([]EventTypeStats, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.stats == nil {
		return nil, nil
	}
	items, err := s.stats.Project(ctx, sub)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	return items, nil
}
