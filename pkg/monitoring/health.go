package monitoring

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/NERVsystems/tripcarbon/pkg/version"
)

// Upstream states
const (
	StatusConnected = "connected"
	StatusDegraded  = "degraded"
	StatusError     = "error"
)

// Overall service states
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthChecker reports whether the estimator can serve requests: which
// reference data it runs on and whether the geocoding and routing upstreams
// answer.
type HealthChecker struct {
	serviceName string
	version     string
	startTime   time.Time

	mu        sync.RWMutex
	upstreams map[string]ConnStatus
	dataset   map[string]int
	info      map[string]string

	stop chan struct{}
	once sync.Once
}

// NewHealthChecker creates a health checker and starts publishing runtime gauges
func NewHealthChecker(serviceName, version string) *HealthChecker {
	hc := &HealthChecker{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		upstreams:   make(map[string]ConnStatus),
		info:        make(map[string]string),
		stop:        make(chan struct{}),
	}
	go hc.publishRuntime(15 * time.Second)
	return hc
}

// SetInfo attaches a static fact about the running estimator to /health,
// such as the reference data source or the default compliance filter.
func (h *HealthChecker) SetInfo(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info[key] = value
}

// SetDataset records the record count of each reference table. A loaded
// data set without fuels or countries cannot produce an estimate, which
// makes the service unhealthy.
func (h *HealthChecker) SetDataset(counts map[string]int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dataset = maps.Clone(counts)
}

// UpdateConnection records the result of an upstream check
func (h *HealthChecker) UpdateConnection(name, status string, latencyMs int64, err error) {
	cs := ConnStatus{
		Name:      name,
		Status:    status,
		Latency:   latencyMs,
		CheckedAt: time.Now(),
	}
	if err != nil {
		cs.LastError = err.Error()
	}

	h.mu.Lock()
	h.upstreams[name] = cs
	h.mu.Unlock()
}

// RemoveConnection stops reporting an upstream
func (h *HealthChecker) RemoveConnection(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.upstreams, name)
}

// GetHealth summarizes the service. Upstreams only degrade the service
// unless more than half of them fail; the estimator still answers from
// reference data when geocoding or routing is down.
func (h *HealthChecker) GetHealth() ServiceHealth {
	h.mu.RLock()
	upstreams := maps.Clone(h.upstreams)
	dataset := maps.Clone(h.dataset)
	info := maps.Clone(h.info)
	h.mu.RUnlock()

	failing, slow := 0, 0
	for _, u := range upstreams {
		switch u.Status {
		case StatusError:
			failing++
		case StatusDegraded:
			slow++
		}
	}

	status := HealthHealthy
	switch {
	case dataset != nil && (dataset["fuels"] == 0 || dataset["countries"] == 0):
		status = HealthUnhealthy
	case failing > len(upstreams)/2:
		status = HealthUnhealthy
	case failing > 0 || slow > 0:
		status = HealthDegraded
	}

	uptime := time.Since(h.startTime)
	stats := readRuntime().fields()
	stats["version_info"] = version.Info()
	stats["upstreams"] = len(upstreams)
	stats["failing_upstreams"] = failing
	stats["slow_upstreams"] = slow

	if upstreams == nil {
		upstreams = map[string]ConnStatus{}
	}
	return ServiceHealth{
		Service:       h.serviceName,
		Version:       h.version,
		Status:        status,
		Uptime:        uptime,
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		Connections:   upstreams,
		Dataset:       dataset,
		Info:          info,
		Metrics:       stats,
	}
}

// HealthHandler serves GetHealth as JSON, 503 when unhealthy
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()
		code := http.StatusOK
		if health.Status == HealthUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeHealthJSON(w, code, health)
	}
}

// LivenessHandler answers as long as the process runs
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealthJSON(w, http.StatusOK, map[string]any{
			"alive":  true,
			"uptime": time.Since(h.startTime).String(),
		})
	}
}

func writeHealthJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode health response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// Shutdown stops publishing runtime gauges. It is safe to call more than once.
func (h *HealthChecker) Shutdown() {
	h.once.Do(func() { close(h.stop) })
}

func (h *HealthChecker) publishRuntime(every time.Duration) {
	info := version.Info()
	SystemInfo.WithLabelValues(info["version"], info["go_version"], info["commit"], info["build_date"]).Set(1)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		rt := readRuntime()
		GoRoutines.Set(float64(rt.goroutines))
		MemoryUsage.Set(float64(rt.allocBytes))
		GCRuns.Set(float64(rt.gcRuns))

		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
	}
}

type runtimeSnapshot struct {
	goroutines int
	allocBytes uint64
	gcRuns     uint32
}

func readRuntime() runtimeSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return runtimeSnapshot{
		goroutines: runtime.NumGoroutine(),
		allocBytes: m.Alloc,
		gcRuns:     m.NumGC,
	}
}

func (r runtimeSnapshot) fields() map[string]any {
	return map[string]any{
		"goroutines":         r.goroutines,
		"memory_alloc_bytes": r.allocBytes,
		"gc_runs":            r.gcRuns,
	}
}

// CheckFunc probes one upstream
type CheckFunc func(ctx context.Context) error

// ConnectionMonitor probes an upstream on an interval and reports to a HealthChecker
type ConnectionMonitor struct {
	name     string
	health   *HealthChecker
	check    CheckFunc
	interval time.Duration
	slow     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConnectionMonitor creates a monitor; Start begins probing
func NewConnectionMonitor(name string, hc *HealthChecker, check CheckFunc, interval time.Duration) *ConnectionMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionMonitor{
		name:     name,
		health:   hc,
		check:    check,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// SetSlowThreshold marks successful checks slower than d as degraded.
// Zero disables the threshold.
func (cm *ConnectionMonitor) SetSlowThreshold(d time.Duration) {
	cm.slow = d
}

// Start probes once immediately, then every interval
func (cm *ConnectionMonitor) Start() {
	go cm.run()
}

// Stop cancels probing and waits for an in-flight check to finish
func (cm *ConnectionMonitor) Stop() {
	cm.cancel()
	<-cm.done
}

func (cm *ConnectionMonitor) run() {
	defer close(cm.done)

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()
	for {
		cm.probe()
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (cm *ConnectionMonitor) probe() {
	start := time.Now()
	err := cm.check(cm.ctx)
	elapsed := time.Since(start)

	// a check cut short by Stop says nothing about the upstream
	if cm.ctx.Err() != nil {
		return
	}

	status := StatusConnected
	switch {
	case err != nil:
		status = StatusError
	case cm.slow > 0 && elapsed > cm.slow:
		status = StatusDegraded
	}
	cm.health.UpdateConnection(cm.name, status, elapsed.Milliseconds(), err)
}
