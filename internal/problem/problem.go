// Package problem maps the error categories in spec.md §7 to an HTTP
// status and a small, stable JSON document, so every handler in
// internal/server/http/controllers produces the same shape regardless of
// which internal error triggered it.
package problem

import (
	"encoding/json"
	"net/http"
)

// Category names a kind from spec.md §7, not a specific error value.
type Category string

const (
	ClientInput           Category = "client_input"
	NotFound              Category = "not_found"
	AuthorizationMismatch Category = "authorization_mismatch"
	StoreUnavailable      Category = "store_unavailable"
	UpstreamLogError      Category = "upstream_log_error"
	GateDisabled          Category = "gate_disabled"
)

// Document is the JSON body written for every non-2xx response.
type Document struct {
	Type   Category `json:"type"`
	Title  string   `json:"title"`
	Status int      `json:"status"`
	Detail string   `json:"detail,omitempty"`
}

var statusByCategory = map[Category]int{
	ClientInput:           http.StatusUnprocessableEntity,
	NotFound:              http.StatusNotFound,
	AuthorizationMismatch: http.StatusForbidden,
	StoreUnavailable:      http.StatusServiceUnavailable,
	UpstreamLogError:      http.StatusServiceUnavailable,
	GateDisabled:          http.StatusNotImplemented,
}

// Write emits a Document for the given category and detail message,
// picking the status code from the fixed table above.
func Write(w http.ResponseWriter, category Category, detail string) {
	status, ok := statusByCategory[category]
	if !ok {
		status = http.StatusInternalServerError
	}
	WriteStatus(w, status, category, detail)
}

// WriteStatus emits a Document with an explicit status, for ClientInput
// failures answered with 400 rather than the category's 422: pagination
// validation, malformed request bodies, and invalid stream parameters.
func WriteStatus(w http.ResponseWriter, status int, category Category, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Document{
		Type:   category,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
