// Package httpclient provides the HTTP client behind every outbound request
// in this repo. Search API calls and company site fetches both build on it,
// so timeout, redirect and cookie behavior live in one place.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Config defines the setup for a Client.
type Config struct {
	// Timeout bounds each request end to end. Zero selects 20s.
	Timeout time.Duration
	// MaxRedirects caps redirect chains. Negative stops following redirects
	// and surfaces the 3xx response itself.
	MaxRedirects int
	// UseCookieJar keeps cookies across requests. Some company sites only
	// serve their contact pages to clients that carry their session cookie.
	UseCookieJar bool
	// Transport overrides the default transport, e.g. for proxies or TLS
	// fingerprinting.
	Transport http.RoundTripper
}

// Client wraps http.Client with the redirect and cookie policy the fetchers
// and API clients rely on.
type Client struct {
	*http.Client
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := &http.Client{
		Timeout:       cfg.Timeout,
		CheckRedirect: redirectPolicy(cfg.MaxRedirects),
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c}, nil
}

// redirectPolicy translates a redirect cap into a CheckRedirect func. With a
// negative cap the original 3xx response is kept, not turned into an error.
func redirectPolicy(max int) func(*http.Request, []*http.Request) error {
	if max < 0 {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}

// Do executes req under ctx. The context governs cancellation independent of
// the client timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	resp, err := c.Client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
