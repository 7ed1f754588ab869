package server

import (
	"context"
	"net/http"
	"time"

	"MagicLists/db"
)

// componentHealth is the status of one dependency.
type componentHealth struct {
	Status string `json:"status"` // ok, error or disabled
	Detail string `json:"detail,omitempty"`
}

// HealthHandler reports the status of every dependency. The endpoint
// returns 200 as long as Navidrome is reachable; database, Redis and AI are
// informational since the service degrades without them.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := map[string]componentHealth{
		"database":  h.databaseHealth(),
		"redis":     h.redisHealth(),
		"navidrome": h.navidromeHealth(ctx),
		"ai":        h.aiHealth(),
	}

	status := http.StatusOK
	overall := "ok"
	if components["navidrome"].Status != "ok" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":     overall,
		"components": components,
	})
}

func (h *APIHandler) databaseHealth() componentHealth {
	if db.GormDB == nil {
		return componentHealth{Status: "disabled"}
	}
	sqlDB, err := db.GormDB.DB()
	if err != nil {
		return componentHealth{Status: "error", Detail: err.Error()}
	}
	if err := sqlDB.Ping(); err != nil {
		return componentHealth{Status: "error", Detail: err.Error()}
	}
	return componentHealth{Status: "ok"}
}

func (h *APIHandler) redisHealth() componentHealth {
	if db.RedisClient == nil {
		return componentHealth{Status: "disabled"}
	}
	if err := db.TestRedis(); err != nil {
		return componentHealth{Status: "error", Detail: err.Error()}
	}
	return componentHealth{Status: "ok"}
}

func (h *APIHandler) navidromeHealth(ctx context.Context) componentHealth {
	if err := h.nav.Ping(ctx); err != nil {
		return componentHealth{Status: "error", Detail: err.Error()}
	}
	return componentHealth{Status: "ok"}
}

func (h *APIHandler) aiHealth() componentHealth {
	if !h.ai.Configured() {
		return componentHealth{Status: "disabled", Detail: "no API key configured"}
	}
	return componentHealth{Status: "ok"}
}
