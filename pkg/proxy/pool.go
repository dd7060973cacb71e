// Package proxy maintains a rotating pool of outbound proxy endpoints with
// per-endpoint health tracking. Endpoints that keep failing sit out a
// cooldown period and rejoin the rotation automatically.
package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Proxy is one endpoint in the rotation together with its health counters.
type Proxy struct {
	URL           *url.URL
	Failures      int
	Successes     int
	LastUsed      time.Time
	Disabled      bool
	DisabledUntil time.Time
}

// revive re-enables a benched endpoint once its cooldown has passed.
func (prx *Proxy) revive(now time.Time) {
	if prx.Disabled && now.After(prx.DisabledUntil) {
		prx.Disabled = false
		prx.Failures = 0
	}
}

// Pool hands out proxies round-robin, skipping endpoints that are cooling
// down. All methods are safe for concurrent use.
type Pool struct {
	mu          sync.Mutex
	proxies     []*Proxy
	next        int
	maxFailures int
	cooldown    time.Duration
}

// Config defines the health policy for a Pool.
type Config struct {
	// MaxFailures benches an endpoint once its failure count reaches it.
	// Zero selects 3.
	MaxFailures int
	// Cooldown is how long a benched endpoint sits out. Zero selects 5m.
	Cooldown time.Duration
}

// NewPool creates an empty pool with the given health policy.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
	}
}

// LoadFile adds proxies from a file with one URL per line. Blank lines and
// lines starting with '#' are skipped.
func (p *Pool) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open proxy file: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read proxy file: %w", err)
	}

	return p.Add(urls...)
}

// Add parses raw URLs and appends them to the rotation. A URL without a
// scheme is treated as http.
func (p *Pool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid proxy url %q: %w", raw, err)
		}
		p.proxies = append(p.proxies, &Proxy{URL: u})
	}
	return nil
}

// Len reports how many proxies are registered, healthy or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Next returns the next healthy proxy URL, or nil when the pool is empty or
// every endpoint is cooling down.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for range p.proxies {
		prx := p.proxies[p.next]
		p.next = (p.next + 1) % len(p.proxies)

		prx.revive(now)
		if !prx.Disabled {
			prx.LastUsed = now
			return prx.URL
		}
	}
	return nil
}

// MarkSuccess records a successful request through proxyURL and works its
// failure count back toward zero.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	if proxyURL == nil {
		return errors.New("proxyURL cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prx := p.find(proxyURL)
	if prx == nil {
		return errors.New("proxy not found in pool")
	}

	prx.Successes++
	if prx.Failures > 0 {
		prx.Failures--
	}
	return nil
}

// MarkFailure records a failed request through proxyURL. Reaching the
// configured failure limit benches the endpoint for the cooldown period.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	if proxyURL == nil {
		return errors.New("proxyURL cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prx := p.find(proxyURL)
	if prx == nil {
		return errors.New("proxy not found in pool")
	}

	prx.Failures++
	if prx.Failures >= p.maxFailures {
		prx.Disabled = true
		prx.DisabledUntil = time.Now().Add(p.cooldown)
	}
	return nil
}

// find locates an endpoint by URL string. Callers hold the lock.
func (p *Pool) find(u *url.URL) *Proxy {
	target := u.String()
	for _, prx := range p.proxies {
		if prx.URL.String() == target {
			return prx
		}
	}
	return nil
}
