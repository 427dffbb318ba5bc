package controllers

import "net/http"

// Registry wires every controller's routes onto a single mux. Adapted
// from the teacher's ControllerRegistry, narrowed to the two surfaces
// this domain exposes.
type Registry struct {
	General       *General
	Subscriptions *Subscriptions
	Streaming     *Streaming
}

// RegisterAll mounts every controller's routes on mux.
func (r *Registry) RegisterAll(mux *http.ServeMux) {
	r.General.Register(mux)
	r.Subscriptions.Register(mux)
	r.Streaming.Register(mux)
}
