// Package tools exposes the trip estimator as MCP tools.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/monitoring"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

// Handler is the signature of every tool handler
type Handler = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Registry holds the tool definitions and the estimator they share
type Registry struct {
	logger    *slog.Logger
	estimator *trip.Estimator
	comply    decision.Filter
	timeout   time.Duration
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithDefaultFilter sets the compliance filter used when a call gives none
func WithDefaultFilter(f decision.Filter) RegistryOption {
	return func(r *Registry) { r.comply = f }
}

// WithTimeout bounds each estimate (0 = no limit)
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.timeout = d }
}

// NewRegistry creates a new tool registry
func NewRegistry(logger *slog.Logger, estimator *trip.Estimator, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger, estimator: estimator}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ToolDefinition pairs an MCP tool with its handler
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     Handler
}

// GetToolDefinitions returns the list of all available tools
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "estimate_automobile_trip",
			Description: "Estimate greenhouse-gas emissions, fuel use, energy and distance of one car trip from whatever is known about it",
			Tool:        EstimateTripTool(),
			Handler:     r.HandleEstimateTrip,
		},
		{
			Name:        "describe_committees",
			Description: "List the committees of the emission model with their ranked methods, inputs and compliance",
			Tool:        DescribeCommitteesTool(),
			Handler:     r.HandleDescribeCommittees,
		},
		{
			Name:        "get_version",
			Description: "Get the version information of this server",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},
	}
}

// GetToolNames returns a list of all tool names
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterTools registers all tools with the MCP server
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, r.wrapWithTracing(def.Name, def.Handler))
	}
}

// wrapWithTracing wraps a tool handler with a span and request metrics
func (r *Registry) wrapWithTracing(toolName string, handler Handler) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("mcp.tool.%s", toolName),
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		startTime := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(startTime)

		status := tracing.StatusSuccess
		switch {
		case err != nil:
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			status = tracing.StatusError
			span.SetStatus(codes.Error, "tool returned an error result")
		default:
			span.SetStatus(codes.Ok, "")
		}

		span.SetAttributes(tracing.MCPToolAttributes(toolName, status, duration.Milliseconds())...)
		monitoring.RecordMCPRequest(toolName, duration, status == tracing.StatusSuccess)

		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", duration.Milliseconds(),
			"status", status)

		return result, err
	}
}
