// Package client queries a broker's admin endpoint.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/monitoring"
)

// Health is the /health response
type Health struct {
	Status string `json:"status"`
	Socket string `json:"socket"`
}

// Client wraps resty for the admin API
type Client struct {
	resty *resty.Client
}

// New creates a client for the admin endpoint at addr ("host:port" or a full URL)
func New(addr string, timeout time.Duration) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	r := resty.New().
		SetBaseURL(addr).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(100*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("User-Agent", "ipcctl/1.0")

	return &Client{resty: r}
}

// Stats fetches the broker counters and live queue state
func (c *Client) Stats(ctx context.Context) (monitoring.Snapshot, error) {
	var snap monitoring.Snapshot
	if err := c.get(ctx, "/stats", &snap); err != nil {
		return monitoring.Snapshot{}, err
	}
	return snap, nil
}

// Health fetches broker liveness
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return Health{}, err
	}
	return h, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}
