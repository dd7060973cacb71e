package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/prospect/internal/bypass"
	"github.com/FranksOps/prospect/internal/fingerprint"
	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/pkg/httpclient"
	"github.com/FranksOps/prospect/pkg/proxy"
	"github.com/FranksOps/prospect/pkg/ratelimit"
	"github.com/FranksOps/prospect/pkg/useragent"
	"github.com/google/uuid"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// DefaultMaxBodySize caps how much of a response body is retained.
const DefaultMaxBodySize = 10 << 20

// DefaultRetries is the number of extra attempts made after a failed fetch.
const DefaultRetries = 3

// FetchConfig configures page fetching.
type FetchConfig struct {
	// Timeout bounds each individual attempt. Zero selects 20s.
	Timeout time.Duration
	// MaxRedirects limits redirect following. Zero selects 10, negative
	// disables redirects entirely.
	MaxRedirects int
	// Retries is the number of additional attempts after a transport error
	// or a retryable status. Zero selects DefaultRetries, negative disables
	// retrying.
	Retries int
	// MaxBodySize truncates bodies larger than this. Zero selects
	// DefaultMaxBodySize, negative disables the cap.
	MaxBodySize  int64
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
}

// Fetcher performs single URL fetches using the configured evasion strategies.
type Fetcher struct {
	config    FetchConfig
	client    *httpclient.Client
	transport http.RoundTripper
	detectors []bypass.Detector
}

// NewFetcher initializes a new Fetcher with the given configuration.
// By holding a single client across requests, cookie jars (if configured) persist for the lifetime of the Fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	} else if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	// Create transport just once per fetcher to allow connection pooling and cookie jar reuse.
	// We inject a proxy function that reads from the request context to allow per-request proxy rotation.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		// http.Transport.Proxy expects nil url if no proxy should be used
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		// Keep local test servers reachable when HTTP_PROXY is set in the environment
		if host := req.URL.Hostname(); host == "127.0.0.1" || host == "localhost" || host == "example.com" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config:    cfg,
		client:    client,
		transport: transport,
		detectors: bypass.DefaultDetectors(),
	}, nil
}

// Fetch executes a GET request to the target URL, retrying transport errors
// and retryable statuses, and captures the response into a Page. The returned
// error is non-nil only for programmer mistakes; fetch failures land in
// Page.Error.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	start := time.Now()

	page := &Page{
		ID:        uuid.New().String(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}

	defer func() {
		page.Duration = time.Since(start)
		metrics.RecordFetch(page.StatusCode, page.Error, page.Blocked, page.Duration)
	}()

	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				page.Error = fmt.Sprintf("retry aborted: %v", err)
				return page, nil
			}
		}

		if f.config.Limiter != nil {
			if err := f.config.Limiter.Wait(ctx); err != nil {
				page.Error = fmt.Sprintf("rate limiter failed: %v", err)
				return page, nil
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			page.Error = fmt.Sprintf("failed to create request: %v", err)
			return page, nil
		}

		// Per-request proxy rotation goes through the request context: the
		// shared transport's proxy func reads proxyKey, so no transport
		// rebuild or unsafe Proxy mutation is needed per request.
		var activeProxy *url.URL
		if f.config.ProxyPool != nil {
			activeProxy = f.config.ProxyPool.Next()
			if activeProxy != nil {
				req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
			}
		}

		// Setup headers and UA rotation
		req.Header.Set("User-Agent", f.config.UAPool.GetSequential())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")

		resp, err := f.client.Do(req.Context(), req)
		if err != nil {
			if activeProxy != nil {
				_ = f.config.ProxyPool.MarkFailure(activeProxy)
				metrics.ProxyFailures.WithLabelValues(activeProxy.String()).Inc()
			}
			page.Error = fmt.Sprintf("request failed: %v", err)
			if ctx.Err() != nil {
				return page, nil
			}
			continue
		}

		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkSuccess(activeProxy)
		}

		body, readErr := f.readBody(resp)
		resp.Body.Close()

		// 429 and 5xx are transient often enough to be worth another attempt
		if retryableStatus(resp.StatusCode) && attempt < f.config.Retries {
			continue
		}

		page.Error = ""
		if readErr != nil {
			page.Error = fmt.Sprintf("failed to read body: %v", readErr)
		}
		page.StatusCode = resp.StatusCode
		page.Headers = resp.Header
		page.Body = body
		if resp.Request != nil && resp.Request.URL != nil {
			page.FinalURL = resp.Request.URL.String()
		}

		// Run detection to identify if we were challenged
		page.Blocked, page.BlockSource = bypass.Analyze(&bypass.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
			Body:       body,
		}, f.detectors)

		return page, nil
	}

	// Retries exhausted; page.Error holds the last transport failure.
	return page, nil
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	if f.config.MaxBodySize < 0 {
		return io.ReadAll(resp.Body)
	}
	return io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize))
}

// retryableStatus reports whether a response status is worth another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// sleepBackoff waits before retry number attempt, doubling the delay each time
// with random jitter so retries from concurrent fetches do not align.
func sleepBackoff(ctx context.Context, attempt int) error {
	d := 500 * time.Millisecond << (attempt - 1)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	d += time.Duration(rand.Float64() * float64(d) * 0.5)

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
