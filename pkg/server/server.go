// Package server runs the tripcarbon MCP server and its HTTP endpoints.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/tripcarbon/pkg/tools"
	"github.com/NERVsystems/tripcarbon/pkg/version"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "tripcarbon"
)

// Server encapsulates the MCP server with the trip tools.
type Server struct {
	srv     *mcpserver.MCPServer
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewServer creates an MCP server with every tool of the registry registered.
func NewServer(registry *tools.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initializing MCP server",
		"name", ServerName,
		"version", version.Version)

	srv := mcpserver.NewMCPServer(
		ServerName,
		version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	registry.RegisterTools(srv)

	guide := mcp.NewPrompt("trip_estimation_guide",
		mcp.WithPromptDescription("How to ask for a trip emissions estimate"),
	)
	srv.AddPrompt(guide, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"Trip Estimation Instructions",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(estimationGuide)),
			},
		), nil
	})

	return &Server{srv: srv, logger: logger}
}

const estimationGuide = `Use estimate_automobile_trip to estimate the emissions of a car trip.
Pass every fact you know and leave the rest out: the model fills gaps from
reference data and country averages, and reports which method produced each
value. Origins and destinations accept addresses, "lat,lon", DMS or MGRS.
If a distance is known, pass it directly instead of locations.
Use comply to restrict methods to ghg_protocol_scope_1, ghg_protocol_scope_3 or iso.
Use describe_committees to see which inputs improve an estimate.`

// Run serves MCP over stdin/stdout until stdin closes or Shutdown is called.
func (s *Server) Run() error {
	return s.RunWithContext(context.Background())
}

// RunWithContext serves MCP over stdin/stdout until ctx is cancelled.
func (s *Server) RunWithContext(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve speaks MCP over the given streams. Only one Serve may run at a time.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
		close(done)
	}()

	s.logger.Info("serving MCP over stdio")
	stdio := mcpserver.NewStdioServer(s.srv)
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	s.logger.Error("server error", "error", err)
	return err
}

// Shutdown stops a running Serve without blocking.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// WaitForShutdown blocks until the current Serve has returned.
func (s *Server) WaitForShutdown() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// GetMCPServer returns the underlying MCP server instance
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}
