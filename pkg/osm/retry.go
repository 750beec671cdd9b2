package osm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/tripcarbon/pkg/tracing"
)

// RetryOptions configures retry behavior for HTTP requests
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions provides sensible defaults for retries
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// WithRetry performs a body-less request with exponential backoff. Only
// network failures and retryable statuses are repeated; a 4xx other than 408
// or 429 is returned at once.
func WithRetry(ctx context.Context, service string, req *http.Request, client *http.Client, options RetryOptions, logger *slog.Logger) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		return nil, NewError(ErrInternalError, service, "cannot retry request with non-nil body")
	}
	if options.MaxAttempts < 1 {
		options.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	spanName := fmt.Sprintf("http.request %s %s", req.Method, req.URL.Host)
	ctx, span := tracing.StartSpan(ctx, spanName,
		trace.WithAttributes(
			attribute.String(tracing.AttrHTTPMethod, req.Method),
			attribute.String(tracing.AttrHTTPURL, req.URL.String()),
			attribute.Int("http.retry.max_attempts", options.MaxAttempts),
		),
	)
	defer span.End()

	logger = logger.With("service", service, "url", req.URL.String())

	var lastErr error
	delay := options.InitialDelay

	for attempt := 0; attempt < options.MaxAttempts; attempt++ {
		if attempt > 0 {
			tracing.AddEvent(ctx, "retry_attempt",
				trace.WithAttributes(
					attribute.Int("attempt", attempt+1),
					attribute.Int64("delay_ms", delay.Milliseconds()),
					attribute.String("error", lastErr.Error()),
				),
			)
			logger.Info("retrying request",
				"attempt", attempt+1,
				"max_attempts", options.MaxAttempts,
				"delay", delay,
				"last_error", lastErr)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				span.SetStatus(codes.Error, "request cancelled")
				return nil, ctx.Err()
			}

			delay = time.Duration(float64(delay) * options.Multiplier)
			if delay > options.MaxDelay {
				delay = options.MaxDelay
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err == nil && resp.StatusCode == http.StatusOK {
			span.SetAttributes(
				attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode),
				attribute.Int("http.retry.attempts", attempt+1),
			)
			span.SetStatus(codes.Ok, "")
			logger.Debug("request successful", "status", resp.StatusCode)
			return resp, nil
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				span.SetStatus(codes.Error, "request cancelled")
				return nil, ctxErr
			}
			lastErr = NewError(ErrNetworkError, service, err.Error())
			logger.Warn("request failed", "error", err, "attempt", attempt+1)
			continue
		}

		resp.Body.Close()
		se := StatusError(service, resp.StatusCode)
		lastErr = se
		logger.Warn("request returned error status",
			"status", resp.StatusCode,
			"attempt", attempt+1)
		if !se.Retryable() {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())

	var se *ServiceError
	if errors.As(lastErr, &se) && se.Retryable() {
		se.Message += fmt.Sprintf(" after %d attempts", options.MaxAttempts)
	}
	return nil, lastErr
}
