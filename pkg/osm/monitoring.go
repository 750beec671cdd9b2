package osm

import (
	"sync"
	"time"
)

// MonitoringHooks receive events for every external request. Any field may be nil.
type MonitoringHooks struct {
	// OnRequest is called before a request is sent
	OnRequest func(service, operation string)

	// OnResponse is called once a request finished, successfully or not
	OnResponse func(service, operation string, duration time.Duration, success bool)

	// OnRateLimit is called after waiting on the local rate limiter
	OnRateLimit func(service string, waitTime time.Duration)

	// OnCache is called for every cache lookup
	OnCache func(cacheType string, hit bool, size int)

	// OnError is called when a request fails
	OnError func(service, errorType string)
}

var (
	globalHooks *MonitoringHooks
	hooksMutex  sync.RWMutex
)

// SetMonitoringHooks installs process-wide monitoring hooks
func SetMonitoringHooks(hooks *MonitoringHooks) {
	hooksMutex.Lock()
	defer hooksMutex.Unlock()
	globalHooks = hooks
}

func getMonitoringHooks() *MonitoringHooks {
	hooksMutex.RLock()
	defer hooksMutex.RUnlock()
	return globalHooks
}

func onRequest(service, operation string) {
	if h := getMonitoringHooks(); h != nil && h.OnRequest != nil {
		h.OnRequest(service, operation)
	}
}

func onResponse(service, operation string, d time.Duration, success bool) {
	if h := getMonitoringHooks(); h != nil && h.OnResponse != nil {
		h.OnResponse(service, operation, d, success)
	}
}

func onRateLimit(service string, wait time.Duration) {
	if h := getMonitoringHooks(); h != nil && h.OnRateLimit != nil {
		h.OnRateLimit(service, wait)
	}
}

func onCache(cacheType string, hit bool, size int) {
	if h := getMonitoringHooks(); h != nil && h.OnCache != nil {
		h.OnCache(cacheType, hit, size)
	}
}

func onError(service, errorType string) {
	if h := getMonitoringHooks(); h != nil && h.OnError != nil {
		h.OnError(service, errorType)
	}
}
