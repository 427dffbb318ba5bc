package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/streamhub/streamhub/internal/runtime"
)

// General handles endpoints with no subscription/streaming semantics of
// their own: the health check the runtime's deploy tooling polls.
type General struct {
	rt *runtime.Runtime
}

// NewGeneral builds a General controller.
func NewGeneral(rt *runtime.Runtime) *General {
	return &General{rt: rt}
}

// Register mounts /healthz on mux.
func (c *General) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", c.health)
}

func (c *General) health(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
