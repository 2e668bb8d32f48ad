package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup-app/internal/lifecycle"
	"github.com/kjstillabower/weather-lookup-app/internal/traffic"
)

const serviceName = "weather-lookup"

// HistorySource reports the current recent-searches list and its bound.
type HistorySource interface {
	History() []string
	HistoryLimit() int
}

// HealthConfig holds the upstream error-rate threshold for /health.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
}

// Handler serves the local status endpoints.
type Handler struct {
	history          HistorySource
	healthConfig     HealthConfig
	logger           *zap.Logger
	started          time.Time
	now              func() time.Time
	errorRate        func(window time.Duration) (errors, total int)
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. history may be nil.
func NewHandler(history HistorySource, healthConfig HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		history:      history,
		healthConfig: healthConfig,
		logger:       logger,
		started:      time.Now(),
		now:          time.Now,
		errorRate:    traffic.ErrorRate,
	}
}

type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	if prev := h.healthStatusPrev; prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	weatherAPI := "healthy"
	if result.reason == "error_rate_breach" {
		weatherAPI = "unhealthy"
	}
	size := 0
	if h.history != nil {
		size = len(h.history.History())
	}
	now := h.now()
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":      result.status,
		"service":     serviceName,
		"version":     "dev",
		"phase":       lifecycle.Current().String(),
		"checks":      map[string]string{"weatherApi": weatherAPI},
		"historySize": size,
		"uptime":      now.Sub(h.started).Round(time.Second).String(),
		"timestamp":   now.UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus checks, in order: window closing, upstream error rate.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.Current() == lifecycle.Closing {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "window_closed"}
	}
	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := h.errorRate(h.healthConfig.DegradedWindow)
		if total > 0 && errs*100 >= h.healthConfig.DegradedErrorPct*total {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// GetHistory handles GET /history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	entries := []string{}
	limit := 0
	if h.history != nil {
		entries = append(entries, h.history.History()...)
		limit = h.history.HistoryLimit()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
