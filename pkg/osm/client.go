// Package osm talks to the OpenStreetMap services used to place and measure
// trips: Nominatim for geocoding and OSRM for driving distances.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/tripcarbon/pkg/tracing"
)

const (
	// DefaultUserAgent is the default User-Agent string
	DefaultUserAgent = "tripcarbon/0.1.0"

	// NominatimBaseURL is the public Nominatim instance
	NominatimBaseURL = "https://nominatim.openstreetmap.org"

	// OSRMBaseURL is the public OSRM demo server
	OSRMBaseURL = "https://router.project-osrm.org"
)

// Client is a rate-limited HTTP client shared by the Nominatim and OSRM adapters
type Client struct {
	http      *http.Client
	userAgent string
	retry     RetryOptions
	logger    *slog.Logger

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent sent with every request
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetryOptions sets the retry policy
func WithRetryOptions(opts RetryOptions) ClientOption {
	return func(c *Client) { c.retry = opts }
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit sets the limit for one service
func WithRateLimit(service string, rps float64, burst int) ClientOption {
	return func(c *Client) { c.SetRateLimit(service, rps, burst) }
}

// NewClient creates a client with connection pooling and a default limit of
// one request per second for each service.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: 30 * time.Second,
		},
		userAgent: DefaultUserAgent,
		retry:     DefaultRetryOptions,
		logger:    slog.Default(),
		limiters: map[string]*rate.Limiter{
			tracing.ServiceNominatim: rate.NewLimiter(rate.Limit(1), 1),
			tracing.ServiceOSRM:      rate.NewLimiter(rate.Limit(1), 1),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRateLimit replaces the limiter for a service
func (c *Client) SetRateLimit(service string, rps float64, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[service] = rate.NewLimiter(rate.Limit(rps), burst)
}

// UserAgent returns the User-Agent sent with every request
func (c *Client) UserAgent() string {
	return c.userAgent
}

func (c *Client) limiter(service string) *rate.Limiter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limiters[service]
}

// waitForRateLimit blocks until the service's limiter admits a request
func (c *Client) waitForRateLimit(ctx context.Context, service string) error {
	limiter := c.limiter(service)
	if limiter == nil || limiter.Allow() {
		return nil
	}

	startWait := time.Now()
	tracing.AddEvent(ctx, "rate_limit_wait",
		trace.WithAttributes(
			attribute.String(tracing.AttrRateLimitService, service),
		),
	)

	err := limiter.Wait(ctx)

	waitDuration := time.Since(startWait)
	tracing.SetAttributes(ctx,
		attribute.String(tracing.AttrRateLimitService, service),
		attribute.Int64(tracing.AttrRateLimitWaitMs, waitDuration.Milliseconds()),
	)
	onRateLimit(service, waitDuration)
	return err
}

// getJSON fetches url for a service and decodes the JSON body into out
func (c *Client) getJSON(ctx context.Context, service, operation, url string, out any) error {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithAttributes(tracing.ServiceAttributes(service, operation, url, 0)...),
	)
	defer span.End()

	onRequest(service, operation)
	start := time.Now()

	err := c.fetch(ctx, service, url, out)
	onResponse(service, operation, time.Since(start), err == nil)
	if err != nil {
		errType := string(ErrNetworkError)
		if se, ok := err.(*ServiceError); ok {
			errType = se.Code
		}
		onError(service, errType)
		span.RecordError(err)
		span.SetAttributes(tracing.ErrorAttributes(err)...)
		return err
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, service, url string, out any) error {
	if err := c.waitForRateLimit(ctx, service); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewError(ErrInternalError, service, err.Error())
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := WithRetry(ctx, service, req, c.http, c.retry, c.logger)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(ErrParseError, service, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}
