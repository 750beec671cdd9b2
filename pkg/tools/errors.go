package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

// ErrorCode identifies a class of tool failure
type ErrorCode string

// Tool error codes
const (
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrInvalidTrip   ErrorCode = "INVALID_TRIP"
	ErrTimeout       ErrorCode = "TIMEOUT"
	ErrCancelled     ErrorCode = "CANCELLED"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// MCPError is the JSON body of a failed tool call
type MCPError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Quantity    string   `json:"quantity,omitempty"`
	Quorum      string   `json:"quorum,omitempty"`
	Guidance    string   `json:"guidance,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (e *MCPError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Guidance != "" {
		msg += ". " + e.Guidance
	}
	return msg
}

// NewError creates an MCPError
func NewError(code ErrorCode, message string) *MCPError {
	return &MCPError{Code: string(code), Message: message}
}

// WithGuidance adds guidance information to the error
func (e *MCPError) WithGuidance(guidance string) *MCPError {
	e.Guidance = guidance
	return e
}

// WithSuggestions adds suggestions to the error
func (e *MCPError) WithSuggestions(suggestions ...string) *MCPError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ToMCPResult converts the error to an MCP tool result
func (e *MCPError) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}
	return mcp.NewToolResultError(string(errorJSON))
}

// FromError classifies an error returned by the estimator
func FromError(err error) *MCPError {
	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var ce *decision.ConfigError
	if errors.As(err, &ce) {
		return &MCPError{
			Code:     ce.Code,
			Message:  ce.Message,
			Quantity: ce.Quantity,
			Quorum:   ce.Quorum,
			Guidance: ce.Guidance,
		}
	}

	if errors.Is(err, trip.ErrInvalidTrip) {
		return NewError(ErrInvalidTrip, err.Error()).
			WithGuidance("Correct the trip fields and try again")
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrTimeout, "estimate timed out").
			WithGuidance("Give coordinates or a distance instead of addresses to avoid slow lookups")
	case errors.Is(err, context.Canceled):
		return NewError(ErrCancelled, "estimate cancelled")
	}
	return NewError(ErrInternalError, err.Error())
}

// ErrorResponse creates an error result from a plain message
func ErrorResponse(message string) *mcp.CallToolResult {
	return NewError(ErrInvalidInput, message).ToMCPResult()
}
