package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/x10-bridge/internal/process"
)

// Health states.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// healthCheckTimeout bounds all dependency checks for one /health request.
const healthCheckTimeout = 3 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	MQTTConnected bool              `json:"mqtt_connected"`
	Monitor       *process.Stats    `json:"monitor,omitempty"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// SystemMetrics represents the complete metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Bridge        BridgeMetrics  `json:"bridge"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// BridgeMetrics contains bridge counters.
type BridgeMetrics struct {
	MQTTConnected   bool   `json:"mqtt_connected"`
	Devices         int    `json:"devices"`
	LinesReceived   uint64 `json:"lines_received"`
	EventsDecoded   uint64 `json:"events_decoded"`
	SetRequests     uint64 `json:"set_requests"`
	CommandsRun     uint64 `json:"commands_run"`
	CommandFailures uint64 `json:"command_failures"`
	Published       uint64 `json:"published"`
	PublishFailures uint64 `json:"publish_failures"`
}

// handleHealth reports ok when MQTT is connected, the monitor (if
// managed) is running and every configured health check passes;
// otherwise degraded with a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        HealthOK,
		Version:       s.version,
		MQTTConnected: s.bridge.GetMetrics().MQTTConnected,
	}
	if !resp.MQTTConnected {
		resp.Status = HealthDegraded
	}

	if s.monitor != nil {
		stats := s.monitor.Stats()
		resp.Monitor = &stats
		if stats.Status != process.StatusRunning {
			resp.Status = HealthDegraded
		}
	}

	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check.HealthCheck(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = HealthDegraded
				continue
			}
			resp.Checks[name] = HealthOK
		}
	}

	status := http.StatusOK
	if resp.Status != HealthOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleMetrics returns bridge counters and runtime statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	bm := s.bridge.GetMetrics()
	writeJSON(w, http.StatusOK, SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Bridge: BridgeMetrics{
			MQTTConnected:   bm.MQTTConnected,
			Devices:         bm.Devices,
			LinesReceived:   bm.LinesReceived,
			EventsDecoded:   bm.EventsDecoded,
			SetRequests:     bm.SetRequests,
			CommandsRun:     bm.CommandsRun,
			CommandFailures: bm.CommandFailures,
			Published:       bm.Published,
			PublishFailures: bm.PublishFailures,
		},
	})
}
