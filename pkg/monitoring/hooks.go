package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/osm"
)

// DecisionHooks returns engine hooks that feed the evaluation metrics
func DecisionHooks() decision.Hooks {
	return decision.Hooks{
		OnQuorumSelected: func(quantity, quorum string) {
			QuorumSelections.WithLabelValues(quantity, quorum).Inc()
		},
		OnQuorumSkipped: func(quantity, quorum string) {
			QuorumsSkipped.WithLabelValues(quantity, quorum).Inc()
		},
		OnUnavailable: func(quantity, quorum string, err error) {
			CollaboratorMisses.WithLabelValues(quantity, quorum).Inc()
		},
		OnEvaluation: func(target string, known bool, elapsed time.Duration, err error) {
			RecordEvaluation(target, known, elapsed, err)
			if err != nil {
				RecordError("engine", errorType(err))
			}
		},
	}
}

// OSMHooks returns request hooks that feed the external service metrics
func OSMHooks() *osm.MonitoringHooks {
	return &osm.MonitoringHooks{
		OnResponse: RecordExternalServiceRequest,
		OnRateLimit: func(service string, wait time.Duration) {
			RecordRateLimitWait(service, wait)
		},
		OnCache: func(cacheType string, hit bool, size int) {
			if hit {
				RecordCacheHit(cacheType)
			} else {
				RecordCacheMiss(cacheType)
			}
			UpdateCacheSize(cacheType, size)
		},
		OnError: func(service, errType string) {
			RecordError(service, errType)
		},
	}
}

func errorType(err error) string {
	var ce *decision.ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "other"
}
