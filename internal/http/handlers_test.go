package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-lookup-app/internal/lifecycle"
)

type fixedHistory []string

func (f fixedHistory) History() []string { return f }
func (f fixedHistory) HistoryLimit() int  { return 5 }

// TestHandler_GetHealth verifies the health body carries status, service and history size.
func TestHandler_GetHealth(t *testing.T) {
	h := NewHandler(fixedHistory{"London", "Paris"}, HealthConfig{}, zap.NewNop())
	h.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	router := NewRouter(h, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" || body["service"] != serviceName {
		t.Errorf("body = %v", body)
	}
	if body["historySize"] != float64(2) {
		t.Errorf("historySize = %v, want 2", body["historySize"])
	}
	if body["timestamp"] != "2026-10-15T12:00:00Z" {
		t.Errorf("timestamp = %v", body["timestamp"])
	}
}

// TestHandler_HealthStatus verifies the status order: closing first, then the
// upstream error-rate threshold.
func TestHandler_HealthStatus(t *testing.T) {
	tests := []struct {
		name       string
		phase      lifecycle.Phase
		errs       int
		total      int
		wantStatus string
		wantCode   int
	}{
		{"no traffic", lifecycle.Running, 0, 0, "healthy", http.StatusOK},
		{"below threshold", lifecycle.Running, 1, 4, "healthy", http.StatusOK},
		{"at threshold", lifecycle.Running, 2, 4, "degraded", http.StatusServiceUnavailable},
		{"closing wins", lifecycle.Closing, 4, 4, "shutting-down", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lifecycle.Set(tt.phase)
			defer lifecycle.Set(lifecycle.Starting)

			h := NewHandler(nil, HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 50}, nil)
			h.errorRate = func(time.Duration) (int, int) { return tt.errs, tt.total }
			rec := httptest.NewRecorder()
			NewRouter(h, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]interface{}
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestHandler_HealthTransitionLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewHandler(nil, HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 50}, zap.New(core))
	router := NewRouter(h, zap.NewNop())

	h.errorRate = func(time.Duration) (int, int) { return 0, 1 }
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	h.errorRate = func(time.Duration) (int, int) { return 1, 1 }
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("health status transition").All()
	if len(entries) != 1 {
		t.Fatalf("transition logs = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["current_status"]; got != "degraded" {
		t.Errorf("current_status = %v, want degraded", got)
	}
}

func TestHandler_GetHistory(t *testing.T) {
	tests := []struct {
		name    string
		history HistorySource
		want    string
	}{
		{"entries", fixedHistory{"Tokyo", "Oslo"}, `{"entries":["Tokyo","Oslo"],"limit":5}`},
		{"nil source", nil, `{"entries":[],"limit":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandler(tt.history, HealthConfig{}, nil), zap.NewNop())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := NewRouter(NewHandler(nil, HealthConfig{}, nil), zap.NewNop())

	// Hit the other routes first so the request counter has samples.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/history", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "httpRequestsTotal") {
		t.Error("metrics output missing httpRequestsTotal")
	}
	if !strings.Contains(rec.Body.String(), `route="/history"`) {
		t.Error("metrics output missing /history route label")
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	router := NewRouter(NewHandler(nil, HealthConfig{}, nil), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Errorf("echoed id = %q, want abc-123", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := rec.Header().Get("X-Correlation-ID"); len(got) != 36 {
		t.Errorf("generated id = %q, want a uuid", got)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := NewRouter(NewHandler(nil, HealthConfig{}, nil), zap.NewNop())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStatusCodeString(t *testing.T) {
	cases := map[int]string{200: "2xx", 404: "4xx", 503: "5xx"}
	for code, want := range cases {
		if got := statusCodeString(code); got != want {
			t.Errorf("statusCodeString(%d) = %q, want %q", code, got, want)
		}
	}
}
