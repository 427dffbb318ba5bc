package streaming

import (
	"context"
	"net/http"
)

// Sink is the byte destination the stream engine owns exclusively for the
// lifetime of a connection. It is adapted from the teacher's SSE sink
// (internal/server/http/controllers/sse.go): Write is a raw byte write
// rather than an SSE "data:" frame, because the wire format here is plain
// newline-delimited JSON, not event-stream framing.
type Sink interface {
	// Write writes raw bytes verbatim to the underlying connection.
	Write(p []byte) (int, error)
	// Context reports connection liveness and carries cancellation.
	Context() context.Context
	// Flush pushes buffered bytes to the client immediately.
	Flush() error
}

// httpSink adapts an http.ResponseWriter/*http.Request pair to Sink.
type httpSink struct {
	w http.ResponseWriter
	r *http.Request
}

// NewHTTPSink builds a Sink over a standard HTTP response writer.
func NewHTTPSink(w http.ResponseWriter, r *http.Request) Sink {
	return httpSink{w: w, r: r}
}

func (s httpSink) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s httpSink) Context() context.Context    { return s.r.Context() }
func (s httpSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Ready reports whether the sink's connection is still usable. The engine
// checks this at the top of every loop iteration (§5 cancellation model).
func Ready(s Sink) bool {
	select {
	case <-s.Context().Done():
		return false
	default:
		return true
	}
}
