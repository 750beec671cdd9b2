package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/tripcarbon/pkg/version"
)

// GetVersionTool returns a tool definition for retrieving version information
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version and build information of the tripcarbon service"),
	)
}

// HandleGetVersion implements version information retrieval
func HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resultBytes, err := json.Marshal(version.Info())
	if err != nil {
		slog.Default().Error("failed to marshal version info", "tool", "get_version", "error", err)
		return ErrorResponse("Failed to retrieve version information"), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}
