package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateConnection(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	hc.UpdateConnection("nominatim", StatusConnected, 100, nil)
	hc.UpdateConnection("osrm", StatusError, 200, errors.New("connection refused"))

	health := hc.GetHealth()
	require.Len(t, health.Connections, 2)
	assert.Equal(t, StatusConnected, health.Connections["nominatim"].Status)
	assert.Equal(t, int64(100), health.Connections["nominatim"].Latency)
	assert.Empty(t, health.Connections["nominatim"].LastError)
	assert.Equal(t, "connection refused", health.Connections["osrm"].LastError)

	hc.RemoveConnection("osrm")
	assert.Len(t, hc.GetHealth().Connections, 1)
}

func TestGetHealthStatus(t *testing.T) {
	tests := []struct {
		name   string
		conns  map[string]string
		status string
	}{
		{"no connections", nil, "healthy"},
		{"all connected", map[string]string{"a": StatusConnected, "b": StatusConnected}, "healthy"},
		{"one degraded", map[string]string{"a": StatusConnected, "b": StatusDegraded}, "degraded"},
		{"half in error", map[string]string{"a": StatusConnected, "b": StatusError}, "degraded"},
		{"most in error", map[string]string{"a": StatusError, "b": StatusError, "c": StatusConnected}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("test-service", "1.0.0")
			defer hc.Shutdown()
			for name, status := range tt.conns {
				hc.UpdateConnection(name, status, 0, nil)
			}
			assert.Equal(t, tt.status, hc.GetHealth().Status)
		})
	}
}

func TestGetHealthFields(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.2.3")
	defer hc.Shutdown()

	health := hc.GetHealth()
	assert.Equal(t, "tripcarbon", health.Service)
	assert.Equal(t, "1.2.3", health.Version)
	assert.False(t, health.StartTime.IsZero())
	assert.Contains(t, health.Metrics, "goroutines")
	assert.Contains(t, health.Metrics, "version_info")
}

func TestHealthHandler(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	defer hc.Shutdown()

	rec := httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ServiceHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)

	hc.UpdateConnection("nominatim", StatusError, 0, errors.New("down"))
	rec = httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLivenessHandler(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	defer hc.Shutdown()

	rec := httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["alive"])
}

func TestConnectionMonitor(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	defer hc.Shutdown()

	var calls int32
	cm := NewConnectionMonitor("osrm", hc, func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) > 1 {
			return errors.New("unreachable")
		}
		return nil
	}, 10*time.Millisecond)
	cm.Start()

	require.Eventually(t, func() bool {
		return hc.GetHealth().Connections["osrm"].Status == StatusError
	}, time.Second, 5*time.Millisecond)

	cm.Stop()
	n := atomic.LoadInt32(&calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt32(&calls))
	assert.Equal(t, "unreachable", hc.GetHealth().Connections["osrm"].LastError)
}

func TestSetInfo(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	defer hc.Shutdown()

	hc.SetInfo("reference_data", "builtin")
	hc.SetInfo("comply", "iso")
	assert.Equal(t, map[string]string{"reference_data": "builtin", "comply": "iso"}, hc.GetHealth().Info)
}

func TestConnectionMonitor_SlowIsDegraded(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	defer hc.Shutdown()

	cm := NewConnectionMonitor("nominatim", hc, func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}, time.Hour)
	cm.SetSlowThreshold(time.Millisecond)
	cm.Start()
	defer cm.Stop()

	require.Eventually(t, func() bool {
		_, ok := hc.GetHealth().Connections["nominatim"]
		return ok
	}, time.Second, 5*time.Millisecond)

	health := hc.GetHealth()
	assert.Equal(t, StatusDegraded, health.Connections["nominatim"].Status)
	assert.Equal(t, "degraded", health.Status)
}

func TestSetDataset(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	defer hc.Shutdown()

	counts := map[string]int{"fuels": 3, "countries": 2, "makes": 1}
	hc.SetDataset(counts)
	counts["fuels"] = 0

	health := hc.GetHealth()
	assert.Equal(t, HealthHealthy, health.Status)
	assert.Equal(t, 3, health.Dataset["fuels"])

	hc.SetDataset(map[string]int{"fuels": 3, "countries": 0})
	assert.Equal(t, HealthUnhealthy, hc.GetHealth().Status)
}

func TestShutdownTwice(t *testing.T) {
	hc := NewHealthChecker("tripcarbon", "1.0.0")
	hc.Shutdown()
	hc.Shutdown()
}
