// Package controllers implements the HTTP surface from spec.md §6: thin
// handlers that decode/validate requests, call into the domain services,
// and map results (or errors) through internal/problem.
package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/streamhub/streamhub/internal/problem"
	"github.com/streamhub/streamhub/internal/subscription"
	"github.com/streamhub/streamhub/internal/toggles"
)

const subscriptionsBasePath = "/subscriptions"

// Subscriptions implements the four subscription-management endpoints.
type Subscriptions struct {
	svc     *subscription.Service
	toggles toggles.Service
}

// NewSubscriptions builds a Subscriptions controller.
func NewSubscriptions(svc *subscription.Service, toggleSvc toggles.Service) *Subscriptions {
	return &Subscriptions{svc: svc, toggles: toggleSvc}
}

// Register mounts the controller's routes on mux, using Go 1.22's
// method-and-pattern ServeMux syntax.
func (c *Subscriptions) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /subscriptions", c.create)
	mux.HandleFunc("GET /subscriptions", c.list)
	mux.HandleFunc("GET /subscriptions/{id}", c.get)
	mux.HandleFunc("GET /subscriptions/{id}/stats", c.stats)
}

func (c *Subscriptions) gateEnabled(r *http.Request) bool {
	return c.toggles.Enabled(r.Context(), toggles.HighLevelAPI)
}

type createSubscriptionRequest struct {
	OwningApplication string   `json:"owning_application"`
	EventTypes        []string `json:"event_types"`
	ConsumerGroup     string   `json:"consumer_group"`
}

type subscriptionResponse struct {
	ID                string   `json:"id"`
	OwningApplication string   `json:"owning_application"`
	EventTypes        []string `json:"event_types"`
	ConsumerGroup     string   `json:"consumer_group"`
	CreatedAt         string   `json:"created_at"`
}

func toResponse(sub subscription.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                sub.ID,
		OwningApplication: sub.OwningApplication,
		EventTypes:        sub.EventTypes,
		ConsumerGroup:     sub.ConsumerGroup,
		CreatedAt:         sub.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

func (c *Subscriptions) create(w http.ResponseWriter, r *http.Request) {
	if !c.gateEnabled(r) {
		problem.Write(w, problem.GateDisabled, "high-level subscription API is disabled")
		return
	}

	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, "malformed request body")
		return
	}

	base := subscription.Base{
		OwningApplication: req.OwningApplication,
		EventTypes:        req.EventTypes,
		ConsumerGroup:     req.ConsumerGroup,
	}
	result, err := c.svc.CreateOrGet(r.Context(), base, principalFrom(r))
	if err != nil {
		writeSubscriptionError(w, err)
		return
	}

	location := fmt.Sprintf("%s/%s", subscriptionsBasePath, result.Subscription.ID)
	w.Header().Set("Location", location)
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		w.Header().Set("Content-Location", location)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toResponse(result.Subscription))
}

func (c *Subscriptions) get(w http.ResponseWriter, r *http.Request) {
	if !c.gateEnabled(r) {
		problem.Write(w, problem.GateDisabled, "high-level subscription API is disabled")
		return
	}
	id := r.PathValue("id")
	sub, err := c.svc.Get(r.Context(), id)
	if err != nil {
		writeSubscriptionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResponse(sub))
}

type listResponse struct {
	Items []subscriptionResponse `json:"items"`
	Links subscription.Links     `json:"_links"`
}

func (c *Subscriptions) list(w http.ResponseWriter, r *http.Request) {
	if !c.gateEnabled(r) {
		problem.Write(w, problem.GateDisabled, "high-level subscription API is disabled")
		return
	}

	q := r.URL.Query()
	limit := 20
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, "'limit' parameter should have value from 1 to 1000")
			return
		}
		limit = parsed
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, "'offset' parameter can't be lower than 0")
			return
		}
		offset = parsed
	}

	filter := subscription.ListFilter{
		OwningApplication: q.Get("owning_application"),
		EventTypes:        q["event_type"],
		Limit:             limit,
		Offset:            offset,
	}

	page, err := c.svc.List(r.Context(), filter)
	if err != nil {
		var clientErr *subscription.ClientError
		if ok := asClientError(err, &clientErr); ok {
			problem.WriteStatus(w, http.StatusBadRequest, problem.ClientInput, clientErr.Message)
			return
		}
		writeSubscriptionError(w, err)
		return
	}

	items := make([]subscriptionResponse, len(page.Items))
	for i, sub := range page.Items {
		items[i] = toResponse(sub)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(listResponse{
		Items: items,
		Links: subscription.BuildLinks(subscriptionsBasePath, filter, page.TotalCount),
	})
}

type statsResponse struct {
	Items []subscription.EventTypeStats `json:"items"`
}

func (c *Subscriptions) stats(w http.ResponseWriter, r *http.Request) {
	if !c.gateEnabled(r) {
		problem.Write(w, problem.GateDisabled, "high-level subscription API is disabled")
		return
	}
	id := r.PathValue("id")
	items, err := c.svc.Stats(r.Context(), id)
	if err != nil {
		writeSubscriptionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{Items: items})
}

func principalFrom(r *http.Request) string {
	return r.Header.Get("X-Consumer-Principal")
}
