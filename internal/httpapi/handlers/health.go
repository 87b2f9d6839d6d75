package handlers

import (
	"context"
	"net/http"
	"time"

	"amsgate/internal/httpkit"
	"amsgate/internal/media"
)

// Health performs a health check of the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "amsgate",
		"version": "0.1.0",
	}

	// Deep check reaches out to the media account.
	if r.URL.Query().Get("deep") == "true" {
		check := h.checkMediaService(ctx)
		health["checks"] = map[string]any{"media": check}

		if check["status"] != "ok" {
			health["status"] = "degraded"
			log.Warn("health check degraded", "media", check)
		}
	}

	httpkit.WriteJSON(w, 200, health)
}

func (h *Handler) checkMediaService(ctx context.Context) map[string]any {
	start := time.Now()
	result := map[string]any{
		"status":   "ok",
		"endpoint": h.svc.Endpoint(),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// A cheap read that exercises auth and connectivity.
	if _, err := h.svc.CountJobsInState(checkCtx, media.StateQueued); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
