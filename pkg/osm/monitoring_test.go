package osm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tripcarbon/pkg/geo"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
)

type hookRecorder struct {
	mu        sync.Mutex
	requests  []string
	responses []bool
	caches    []bool
	errors    []string
	waits     int
}

func (h *hookRecorder) hooks() *MonitoringHooks {
	return &MonitoringHooks{
		OnRequest: func(service, operation string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.requests = append(h.requests, service+"."+operation)
		},
		OnResponse: func(service, operation string, d time.Duration, success bool) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.responses = append(h.responses, success)
		},
		OnRateLimit: func(service string, wait time.Duration) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.waits++
		},
		OnCache: func(cacheType string, hit bool, size int) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.caches = append(h.caches, hit)
		},
		OnError: func(service, errorType string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.errors = append(h.errors, errorType)
		},
	}
}

func TestMonitoringHooks_RouteRequests(t *testing.T) {
	rec := &hookRecorder{}
	SetMonitoringHooks(rec.hooks())
	defer SetMonitoringHooks(nil)

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"code":"Ok","routes":[{"distance":1000}]}`)
	}))
	defer srv.Close()

	r, err := NewRouter(testClient(), RouterOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	a := geo.Location{Latitude: 1, Longitude: 1}
	b := geo.Location{Latitude: 2, Longitude: 2}
	_, err = r.RouteDistance(context.Background(), a, b)
	require.NoError(t, err)
	_, err = r.RouteDistance(context.Background(), a, b)
	require.NoError(t, err)

	fail.Store(true)
	_, err = r.RouteDistance(context.Background(), b, a)
	require.Error(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"osrm.route", "osrm.route"}, rec.requests)
	assert.Equal(t, []bool{true, false}, rec.responses)
	assert.Equal(t, []bool{false, true, false}, rec.caches)
	assert.Equal(t, []string{string(ErrInvalidInput)}, rec.errors)
}

func TestMonitoringHooks_RateLimit(t *testing.T) {
	rec := &hookRecorder{}
	SetMonitoringHooks(rec.hooks())
	defer SetMonitoringHooks(nil)

	c := NewClient(WithRateLimit(tracing.ServiceOSRM, 50, 1))
	require.NoError(t, c.waitForRateLimit(context.Background(), tracing.ServiceOSRM))
	require.NoError(t, c.waitForRateLimit(context.Background(), tracing.ServiceOSRM))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.waits)
}

func TestMonitoringHooks_Nil(t *testing.T) {
	SetMonitoringHooks(nil)
	assert.NotPanics(t, func() {
		onRequest("s", "op")
		onResponse("s", "op", time.Millisecond, true)
		onRateLimit("s", time.Millisecond)
		onCache("geocode", true, 1)
		onError("s", "x")
	})

	SetMonitoringHooks(&MonitoringHooks{})
	defer SetMonitoringHooks(nil)
	assert.NotPanics(t, func() {
		onRequest("s", "op")
		onError("s", "x")
	})
}

func TestRateLimitCancelled(t *testing.T) {
	c := NewClient(WithRateLimit(tracing.ServiceNominatim, 0.001, 1))
	require.NoError(t, c.waitForRateLimit(context.Background(), tracing.ServiceNominatim))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.waitForRateLimit(ctx, tracing.ServiceNominatim))
}
