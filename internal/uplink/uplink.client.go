// FilePath: internal/uplink/uplink.client.go
package uplink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boatmonitor/hub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/time/rate"
)

// ClientConfig configures access to the device network's uplink storage.
type ClientConfig struct {
	BaseURL           string
	ApplicationID     string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Client fetches stored uplinks as a newline-delimited event stream.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new storage client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewValidationError("uplink storage base url is required", nil)
	}
	if cfg.ApplicationID == "" {
		return nil, errors.NewValidationError("application id is required", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}, nil
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string {
	return "ttn"
}

// FetchSince returns all uplinks stored after the given instant.
func (c *Client) FetchSince(ctx context.Context, after time.Time) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/v3/as/applications/%s/packages/storage/uplink_message",
		c.config.BaseURL, url.PathEscape(c.config.ApplicationID))
	params := url.Values{}
	params.Set("after", after.UTC().Format(time.RFC3339))

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			nuts.L.Warnf("[UplinkClient] Retrying fetch (%d/%d): %v", attempt, c.config.MaxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryBackoff * time.Duration(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}

		body, retry, err := c.do(ctx, endpoint+"?"+params.Encode())
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, target string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, errors.NewUpstreamError("uplink storage request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.NewUpstreamError("failed to read uplink storage response", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := errors.NewUpstreamError(fmt.Sprintf("uplink storage returned status %d", resp.StatusCode), nil)
		return nil, resp.StatusCode >= http.StatusInternalServerError, err
	}
	return body, false, nil
}
