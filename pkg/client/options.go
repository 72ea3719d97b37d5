package client

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each attempt. Retries get a fresh budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger routes retry and failure messages to l.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetries sets how many times a retryable response is retried.
// Zero disables retries; negative values are ignored.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// WithBackoff sets the exponential backoff bounds. A ceiling below the
// floor is raised to the floor.
func WithBackoff(floor, ceiling time.Duration) Option {
	return func(c *Client) {
		if floor <= 0 {
			return
		}
		if ceiling < floor {
			ceiling = floor
		}
		c.retryWaitMin, c.retryWaitMax = floor, ceiling
	}
}

// WithAuthToken sends token as a bearer credential on every request, for
// servers published behind an authenticating gateway.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithUserAgent overrides the default civicpulse-go-client User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

//Personal.AI order the ending
