package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/streamhub/streamhub/internal/server/http/controllers"
)

// Server is the HTTP listener for the subscription-management and
// low-level streaming surfaces (spec.md §6). Adapted from the teacher's
// Server, which owned the same listen/serve/shutdown shape over a
// different route set.
type Server struct {
	srv *http.Server
	lis net.Listener
}

// New builds a Server with every controller in registry mounted.
func New(registry *controllers.Registry) *Server {
	mux := http.NewServeMux()
	registry.RegisterAll(mux)
	return &Server{srv: &http.Server{Handler: cors(mux)}}
}

// ListenAndServe binds addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Consumer-App, X-Consumer-Principal, X-Cursors")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
