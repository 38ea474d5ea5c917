package api

import (
	"net/http"
	"time"

	"cafesched/internal/buildinfo"
)

// DebugJSON handles GET /debug/info: build info and the effective, secret-free config.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config
	storeKind := "memory"
	if cfg.Database.URL != "" {
		storeKind = "postgres"
	}
	brokerKind := "memory"
	if _, ok := s.Broker.(*RedisBroker); ok {
		brokerKind = "redis"
	}
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":                 cfg.Server.Port,
			"RATE_RPS":             cfg.Server.RateRPS,
			"RATE_BURST":           cfg.Server.RateBurst,
			"WEBHOOK_MAX_ATTEMPTS": cfg.Webhooks.MaxAttempts,
			"SERVE_STYLE":          s.style.String(),
			"LOG_LEVEL":            cfg.Log.Level,
			"HAS_DATABASE_URL":     cfg.Database.URL != "",
			"HAS_REDIS_URL":        cfg.Redis.URL != "",
		},
		"store":  storeKind,
		"broker": brokerKind,
		"menu":   cfg.Menu,
	}
	writeJSON(w, http.StatusOK, info)
}
