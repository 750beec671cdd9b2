package decision

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of configuration failure
type ErrorCode string

// Configuration error codes
const (
	ErrCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	ErrDuplicateQuorum  ErrorCode = "DUPLICATE_QUORUM"
	ErrInvalidQuorum    ErrorCode = "INVALID_QUORUM"
	ErrRegistrySealed   ErrorCode = "REGISTRY_SEALED"
	ErrRegistryOpen     ErrorCode = "REGISTRY_NOT_SEALED"
	ErrUndeclaredInput  ErrorCode = "UNDECLARED_INPUT"
	ErrInputType        ErrorCode = "INPUT_TYPE"
	ErrComputeFailed    ErrorCode = "COMPUTE_FAILED"
)

// ErrUnavailable marks a collaborator miss inside a quorum. The engine moves on
// to the next quorum of the committee instead of failing the evaluation.
var ErrUnavailable = errors.New("characteristic unavailable")

// Unavailable wraps a collaborator failure so that it matches ErrUnavailable
func Unavailable(err error) error {
	if err == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Unavailablef builds an ErrUnavailable with a formatted reason
func Unavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// ConfigError is a fatal problem with the committee configuration. It aborts
// the evaluation that hit it; nothing about it is retried.
type ConfigError struct {
	Code     string `json:"code"`
	Quantity string `json:"quantity,omitempty"`
	Quorum   string `json:"quorum,omitempty"`
	Message  string `json:"message"`
	Guidance string `json:"guidance,omitempty"`
	err      error
}

// NewConfigError creates a ConfigError for the given quantity
func NewConfigError(code ErrorCode, quantity, message string) *ConfigError {
	return &ConfigError{
		Code:     string(code),
		Quantity: quantity,
		Message:  message,
	}
}

// WithQuorum records the quorum that triggered the error
func (e *ConfigError) WithQuorum(name string) *ConfigError {
	e.Quorum = name
	return e
}

// WithGuidance adds guidance information to the error
func (e *ConfigError) WithGuidance(guidance string) *ConfigError {
	e.Guidance = guidance
	return e
}

// Wrap attaches the underlying cause
func (e *ConfigError) Wrap(err error) *ConfigError {
	e.err = err
	return e
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	where := e.Quantity
	if e.Quorum != "" {
		where = fmt.Sprintf("%s (quorum %q)", e.Quantity, e.Quorum)
	}
	msg := fmt.Sprintf("%s: %s: %s", e.Code, where, e.Message)
	if e.Guidance != "" {
		msg += ". " + e.Guidance
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *ConfigError) Unwrap() error {
	return e.err
}

// IsConfigError reports whether err carries a ConfigError with the given code
func IsConfigError(err error, code ErrorCode) bool {
	var ce *ConfigError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == string(code)
}
