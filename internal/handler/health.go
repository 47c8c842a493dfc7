package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/itchan-dev/postsweb/internal/logger"
)

// Health reports liveness.
// Returns 200 OK if the server is running.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ready reports readiness.
// Returns 503 Service Unavailable when the posts API does not answer.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	// Use a short timeout for health checks
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.APIClient.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("posts api unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
