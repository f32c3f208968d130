package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Database    string    `json:"database"`
	Environment string    `json:"environment"`
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(rt.started).Seconds(),
		Database:    "connected",
		Environment: rt.appEnv,
	}
	status := http.StatusOK

	if rt.svc.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.svc.Health.Ping(ctx); err != nil {
			slog.Warn("health_check_failed", "error", err)
			resp.Status = "error"
			resp.Database = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
