package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-vfadd/internal/harness"
	"github.com/23skdu/longbow-vfadd/internal/logger"
)

// maxAlerts bounds the alert history.
const maxAlerts = 100

// HealthStatus represents the health status of a run
type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	System    SystemInfo    `json:"system"`
	Progress  Progress      `json:"progress"`
	Alerts    []Alert       `json:"alerts"`
}

// SystemInfo contains system-level information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	MemoryMB     int    `json:"memory_mb"`
	MemoryUsedMB int    `json:"memory_used_mb"`
}

// Progress counts executed vectors.
type Progress struct {
	Total     int  `json:"total"`
	Executed  int  `json:"executed"`
	Passed    int  `json:"passed"`
	Failed    int  `json:"failed"`
	NoVerdict int  `json:"no_verdict"`
	Done      bool `json:"done"`
}

// Alert records one failing or silent vector.
type Alert struct {
	Level     string    `json:"level"` // error for Fail, warning for NoVerdict
	Index     int       `json:"index"`
	Mode      string    `json:"mode"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthMonitor tracks a run and serves its state over HTTP. It is a
// harness.Reporter; results are forwarded to Next when set.
type HealthMonitor struct {
	Next harness.Reporter

	startTime time.Time
	server    *http.Server

	mu       sync.RWMutex
	progress Progress
	alerts   []Alert
}

var _ harness.Reporter = (*HealthMonitor)(nil)

func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{startTime: time.Now()}
}

// Handler serves /health, /healthz, /status, /admin/alerts and /metrics.
func (hm *HealthMonitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hm.handleHealth)
	mux.HandleFunc("/healthz", hm.handleHealth)
	mux.HandleFunc("/status", hm.handleDetailedStatus)
	mux.HandleFunc("/admin/alerts", hm.handleAlerts)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves Handler on addr and blocks until Stop.
func (hm *HealthMonitor) Start(addr string) error {
	hm.mu.Lock()
	hm.server = &http.Server{
		Addr:         addr,
		Handler:      hm.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	srv := hm.server
	hm.mu.Unlock()

	logger.Log.Info("Health monitor starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (hm *HealthMonitor) Stop(ctx context.Context) error {
	hm.mu.RLock()
	srv := hm.server
	hm.mu.RUnlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// Begin announces how many vectors the run will execute.
func (hm *HealthMonitor) Begin(total int) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.progress = Progress{Total: total}
	hm.alerts = nil
}

// Finish marks the run complete.
func (hm *HealthMonitor) Finish() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.progress.Done = true
}

func (hm *HealthMonitor) Record(res harness.Result) error {
	hm.mu.Lock()
	hm.progress.Executed++
	switch res.Outcome {
	case harness.Pass:
		hm.progress.Passed++
	case harness.Fail:
		hm.progress.Failed++
		hm.addAlert("error", res, "result outside tolerance")
	case harness.NoVerdict:
		hm.progress.NoVerdict++
		msg := "no result"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		hm.addAlert("warning", res, msg)
	}
	hm.mu.Unlock()

	if hm.Next != nil {
		return hm.Next.Record(res)
	}
	return nil
}

// addAlert requires hm.mu.
func (hm *HealthMonitor) addAlert(level string, res harness.Result, msg string) {
	hm.alerts = append(hm.alerts, Alert{
		Level:     level,
		Index:     res.Index,
		Mode:      res.Vector.Mode().String(),
		Message:   fmt.Sprintf("%s: %v", msg, res.Vector),
		Timestamp: time.Now(),
	})
	if len(hm.alerts) > maxAlerts {
		hm.alerts = hm.alerts[1:]
	}
}

func (hm *HealthMonitor) Status() HealthStatus {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	status := "healthy"
	switch {
	case hm.progress.Failed > 0:
		status = "failing"
	case hm.progress.NoVerdict > 0:
		status = "degraded"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Uptime:    time.Since(hm.startTime),
		System:    systemInfo(),
		Progress:  hm.progress,
		Alerts:    append([]Alert(nil), hm.alerts...),
	}
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		MemoryMB:     int(m.Sys / 1024 / 1024),
		MemoryUsedMB: int(m.Alloc / 1024 / 1024),
	}
}

// HTTP Handlers

func (hm *HealthMonitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := hm.Status()

	w.Header().Set("Content-Type", "application/json")
	if status.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    status.Status,
		"timestamp": status.Timestamp.Format(time.RFC3339),
	})
}

func (hm *HealthMonitor) handleDetailedStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(hm.Status())
}

func (hm *HealthMonitor) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		hm.mu.Lock()
		hm.alerts = nil
		hm.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	hm.mu.RLock()
	alerts := append([]Alert{}, hm.alerts...)
	hm.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alerts)
}
