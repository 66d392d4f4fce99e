package common

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.Checks) > 0 {
		response.Checks = make(map[string]string, len(h.Checks))
	}
	for name, check := range h.Checks {
		if err := check.Health(ctx); err != nil {
			h.log.InternalError("health: check failed", err, "check", name)
			response.Checks[name] = "unavailable"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	writeJSON(w, status, response)
}
