package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for evaluation spans
const (
	// Decision engine attributes
	AttrEvaluationID = "decision.evaluation.id"
	AttrTarget       = "decision.target"
	AttrQuantity     = "decision.quantity"
	AttrQuorum       = "decision.quorum"
	AttrKnown        = "decision.known"
	AttrFilter       = "decision.filter"
	AttrTimeframe    = "decision.timeframe"

	// MCP tool attributes
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"

	// HTTP attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPPath       = "http.path"
	AttrHTTPURL        = "http.url"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPRequestID  = "http.request_id"

	// External service attributes
	AttrServiceName      = "trip.service.name"
	AttrServiceOperation = "trip.service.operation"
	AttrServiceURL       = "trip.service.url"
	AttrServiceStatus    = "trip.service.status"

	// Cache attributes
	AttrCacheType = "trip.cache.type"
	AttrCacheHit  = "trip.cache.hit"

	// Rate limiting attributes
	AttrRateLimitService = "trip.ratelimit.service"
	AttrRateLimitWaitMs  = "trip.ratelimit.wait_ms"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusRateLimited = "rate_limited"
)

// Service names
const (
	ServiceNominatim = "nominatim"
	ServiceOSRM      = "osrm"
)

// Cache types
const (
	CacheTypeGeocode = "geocode"
	CacheTypeRoute   = "route"
)

// EvaluationAttributes returns attributes describing one engine evaluation
func EvaluationAttributes(id, target, filter, timeframe string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrEvaluationID, id),
		attribute.String(AttrTarget, target),
		attribute.String(AttrFilter, filter),
		attribute.String(AttrTimeframe, timeframe),
	}
}

// ResolutionAttributes returns attributes for a committee decision
func ResolutionAttributes(quantity, quorum string, known bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrQuantity, quantity),
		attribute.String(AttrQuorum, quorum),
		attribute.Bool(AttrKnown, known),
	}
}

// MCPToolAttributes returns attributes for MCP tool execution
func MCPToolAttributes(toolName string, status string, durationMs int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolStatus, status),
		attribute.Int64(AttrMCPToolDuration, durationMs),
	}
}

// ServiceAttributes returns attributes for external service calls
func ServiceAttributes(service, operation, url string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrServiceName, service),
		attribute.String(AttrServiceOperation, operation),
		attribute.String(AttrServiceURL, url),
		attribute.Int(AttrServiceStatus, status),
	}
}

// CacheAttributes returns attributes for cache lookups
func CacheAttributes(cacheType string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheType, cacheType),
		attribute.Bool(AttrCacheHit, hit),
	}
}

// ErrorAttributes returns attributes for errors
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
