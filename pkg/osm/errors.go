package osm

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed service call
type ErrorCode string

// Service error codes
const (
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"
	ErrNoResults          ErrorCode = "NO_RESULTS"
	ErrParseError         ErrorCode = "PARSE_ERROR"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ServiceError is a failure talking to Nominatim or OSRM
type ServiceError struct {
	Code     string `json:"code"`
	Service  string `json:"service"`
	Status   int    `json:"status,omitempty"`
	Message  string `json:"message"`
	Guidance string `json:"guidance,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Code, e.Service, e.Message)
	if e.Guidance != "" {
		msg += ". " + e.Guidance
	}
	return msg
}

// WithGuidance adds guidance information to the error
func (e *ServiceError) WithGuidance(guidance string) *ServiceError {
	e.Guidance = guidance
	return e
}

// Retryable reports whether repeating the request may succeed
func (e *ServiceError) Retryable() bool {
	switch ErrorCode(e.Code) {
	case ErrRateLimit, ErrServiceTimeout, ErrServiceUnavailable, ErrNetworkError, ErrInternalError:
		return true
	default:
		return false
	}
}

// NewError creates a ServiceError with the given code
func NewError(code ErrorCode, service, message string) *ServiceError {
	return &ServiceError{Code: string(code), Service: service, Message: message}
}

// StatusError maps an HTTP status from a service to a ServiceError
func StatusError(service string, status int) *ServiceError {
	var code ErrorCode
	var guidance string

	switch {
	case status == http.StatusTooManyRequests:
		code = ErrRateLimit
		guidance = "The service is rate-limited. Lower the configured requests per second"
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "The request timed out. This is likely temporary"
	case status == http.StatusBadRequest:
		code = ErrInvalidInput
		guidance = "The service rejected the request parameters"
	case status == http.StatusNotFound:
		code = ErrNoResults
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway:
		code = ErrServiceUnavailable
		guidance = "The service is temporarily unavailable"
	case status >= 500:
		code = ErrInternalError
		guidance = "The server encountered an error. This is likely temporary"
	default:
		code = ErrServiceUnavailable
	}

	e := NewError(code, service, fmt.Sprintf("HTTP status %d", status))
	e.Status = status
	return e.WithGuidance(guidance)
}
