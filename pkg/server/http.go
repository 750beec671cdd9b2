package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/tripcarbon/pkg/monitoring"
	"github.com/NERVsystems/tripcarbon/pkg/tools"
)

// HTTPConfig configures the HTTP endpoints
type HTTPConfig struct {
	Addr           string
	RateLimit      float64 // requests per second per IP (0 = disabled)
	RateBurst      int
	MaxRequestSize int64
	AuthToken      string // bearer token for /v1 (empty = open)
}

// DefaultHTTPConfig returns sensible defaults
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr:           "localhost:9090",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 1 << 20,
	}
}

// Handler serves metrics, health and a JSON API over the MCP tool handlers
type Handler struct {
	logger   *slog.Logger
	registry *tools.Registry
	health   *monitoring.HealthChecker
	mux      *http.ServeMux
}

// NewHandler creates the HTTP handler. health may be nil.
func NewHandler(logger *slog.Logger, registry *tools.Registry, health *monitoring.HealthChecker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		registry: registry,
		health:   health,
		mux:      http.NewServeMux(),
	}
	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /live", h.handleLive)
	h.mux.HandleFunc("POST /v1/estimate", h.handleEstimate)
	h.mux.HandleFunc("GET /v1/committees", h.handleCommittees)
	return h
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		h.health.HealthHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		h.health.LivenessHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeToolError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeToolError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	h.callTool(w, r, "estimate_automobile_trip", h.registry.HandleEstimateTrip, args)
}

func (h *Handler) handleCommittees(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{}
	if q := r.URL.Query().Get("quantity"); q != "" {
		args["quantity"] = q
	}
	h.callTool(w, r, "describe_committees", h.registry.HandleDescribeCommittees, args)
}

// callTool runs a tool handler and writes its text content as the response body
func (h *Handler) callTool(w http.ResponseWriter, r *http.Request, name string, handler tools.Handler, args map[string]any) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := handler(r.Context(), req)
	if err != nil {
		h.logger.Error("tool call failed", "tool", name, "error", err)
		h.writeToolError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var content string
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			content = t.Text
			break
		}
	}

	status := http.StatusOK
	if result.IsError {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(content)); err != nil {
		h.logger.Error("failed to write response", "tool", name, "error", err)
	}
}

func (h *Handler) writeToolError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, tools.NewError(tools.ErrInvalidInput, message))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPServer runs the Handler behind the middleware chain
type HTTPServer struct {
	config      HTTPConfig
	logger      *slog.Logger
	handler     http.Handler
	rateLimiter *RateLimiter
	mu          sync.Mutex
	httpSrv     *http.Server
}

// NewHTTPServer wraps h with tracing, logging, security headers, a body
// size limit and per-IP rate limiting.
func NewHTTPServer(config HTTPConfig, h http.Handler, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{config: config, logger: logger}

	handler := h
	if config.RateLimit > 0 {
		s.rateLimiter = NewRateLimiter(rate.Limit(config.RateLimit), config.RateBurst)
		handler = s.rateLimiter.Middleware(handler)
	}
	if config.AuthToken != "" {
		handler = BearerAuth(config.AuthToken, "/v1/")(handler)
	}
	if config.MaxRequestSize > 0 {
		handler = RequestSizeLimiter(config.MaxRequestSize)(handler)
	}
	handler = SecurityHeaders(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = TracingMiddleware()(handler)
	s.handler = handler
	return s
}

// Handler returns the wrapped handler
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	if s.httpSrv != nil {
		s.mu.Unlock()
		return errors.New("HTTP server already started")
	}
	s.httpSrv = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpSrv
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "addr", s.config.Addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.rateLimiter = nil
	}
	if s.httpSrv == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	err := s.httpSrv.Shutdown(ctx)
	s.httpSrv = nil
	return err
}

func generateRequestID() string {
	return uuid.NewString()
}
