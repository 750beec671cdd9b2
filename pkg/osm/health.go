package osm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// checkHealth issues a single rate-limited GET and treats any status below 500 as healthy
func (c *Client) checkHealth(ctx context.Context, service, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.waitForRateLimit(ctx, service); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s health check request: %w", service, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s health check failed: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s health check returned status %d", service, resp.StatusCode)
	}
	return nil
}
