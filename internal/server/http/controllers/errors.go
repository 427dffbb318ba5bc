package controllers

import (
	"errors"
	"net/http"

	"github.com/streamhub/streamhub/internal/problem"
	"github.com/streamhub/streamhub/internal/subscription"
)

// asClientError is a thin errors.As wrapper so call sites read naturally.
func asClientError(err error, target **subscription.ClientError) bool {
	return errors.As(err, target)
}

// writeSubscriptionError maps a subscription package error to the problem
// category table in spec.md §7.
func writeSubscriptionError(w http.ResponseWriter, err error) {
	var clientErr *subscription.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Kind {
		case subscription.KindScopeMismatch:
			problem.Write(w, problem.AuthorizationMismatch, clientErr.Message)
		default:
			problem.Write(w, problem.ClientInput, clientErr.Message)
		}
		return
	}
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		problem.Write(w, problem.NotFound, "subscription not found")
	case errors.Is(err, subscription.ErrStoreUnavailable):
		problem.Write(w, problem.StoreUnavailable, "subscription store is unavailable")
	default:
		problem.Write(w, problem.StoreUnavailable, "unexpected error")
	}
}
