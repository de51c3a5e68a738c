package billing

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// streamWriter is a transparent pass-through around the response writer for
// streaming routes. It forwards every chunk unmodified and records whether
// any write failed, which is how a client disconnect before clean
// end-of-stream is detected. The writer only observes completion; it never
// computes cost.
type streamWriter struct {
	gin.ResponseWriter

	mu     sync.Mutex
	failed bool
	wrote  bool
}

// newStreamWriter wraps a gin response writer.
func newStreamWriter(w gin.ResponseWriter) *streamWriter {
	return &streamWriter{ResponseWriter: w}
}

// Write forwards bytes and records write failures.
func (w *streamWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.mu.Lock()
	w.wrote = true
	if err != nil {
		w.failed = true
	}
	w.mu.Unlock()
	return n, err
}

// WriteString forwards a string chunk and records write failures.
func (w *streamWriter) WriteString(s string) (int, error) {
	n, err := w.ResponseWriter.WriteString(s)
	w.mu.Lock()
	w.wrote = true
	if err != nil {
		w.failed = true
	}
	w.mu.Unlock()
	return n, err
}

// Failed reports whether any chunk failed to reach the client.
func (w *streamWriter) Failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}
