package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/quant/orchestrator"
)

// writeSSE adapts one orchestrator.StepEvent channel onto an SSE
// response, the engine's only stream transport. No library in the
// reference pack offers an SSE writer, so this is built directly on
// net/http's Flusher the way a teacher-style handler would reach for
// the stdlib when nothing in the stack already does the job.
func (s *Server) writeSSE(w http.ResponseWriter, r *http.Request, events <-chan orchestrator.StepEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	streamSessionsActive.Inc()
	defer streamSessionsActive.Dec()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			body, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("failed to marshal stream event", zap.Error(err))
				return
			}
			if _, err := w.Write([]byte("event: " + string(ev.Type) + "\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(body); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
			if ev.Final {
				return
			}
		}
	}
}
