// Package mock provides a recording [annotate.Client] test double.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/clarivox/clarivox/internal/annotate"
)

// Client is a mock annotation client. Configure the response fields, then
// inspect Calls after the code under test has run. Safe for concurrent use.
type Client struct {
	mu sync.Mutex

	// Response is returned by every Annotate call when Err is nil.
	// When nil, an empty Result is returned.
	Response *annotate.Result

	// Err, when non-nil, is returned by every Annotate call.
	Err error

	// Delay, when non-zero, is how long Annotate blocks before returning
	// (interruptible by ctx — the context error wins).
	Delay time.Duration

	// Calls records every request received, in order.
	Calls []annotate.Request

	// active tracks how many Annotate calls are currently executing;
	// MaxActive retains the high-water mark for single-flight assertions.
	active    int
	MaxActive int
}

var _ annotate.Client = (*Client)(nil)

// Annotate records the request and returns the configured response.
func (c *Client) Annotate(ctx context.Context, req annotate.Request) (*annotate.Result, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, req)
	c.active++
	if c.active > c.MaxActive {
		c.MaxActive = c.active
	}
	delay := c.Delay
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Response != nil {
		resp := *c.Response
		return &resp, nil
	}
	return &annotate.Result{}, nil
}

// CallCount returns the number of Annotate calls received so far.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
