package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsTxtAuditor fetches and caches robots.txt rules per host. A missing
// or unreadable robots.txt counts as allowing everything, so company sites
// without one are still crawlable.
type RobotsTxtAuditor struct {
	fetcher *Fetcher
	logger  *slog.Logger

	mu    sync.RWMutex
	rules map[string]*robotstxt.RobotsData // nil entry: no usable rules for the host
}

// NewRobotsTxtAuditor creates an auditor that reads robots.txt through fetcher.
func NewRobotsTxtAuditor(fetcher *Fetcher, logger *slog.Logger) *RobotsTxtAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsTxtAuditor{
		fetcher: fetcher,
		logger:  logger,
		rules:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether targetURL may be fetched as userAgent under the
// host's robots.txt.
func (r *RobotsTxtAuditor) IsAllowed(ctx context.Context, targetURL string, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}

	data, err := r.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		r.logger.Debug("robots.txt fetch failed, defaulting to allow", "host", u.Host, "err", err)
		return true, nil
	}
	if data == nil {
		return true, nil
	}

	return data.FindGroup(userAgent).Test(u.Path), nil
}

// SitemapExtracts returns the sitemap URLs listed in the host's robots.txt.
func (r *RobotsTxtAuditor) SitemapExtracts(ctx context.Context, host string) ([]string, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}

	data, err := r.rulesFor(ctx, host)
	if err != nil || data == nil {
		return nil, nil
	}

	return data.Sitemaps, nil
}

// rulesFor returns the cached rules for host, fetching them on first use.
// Hosts without a usable robots.txt cache a nil entry so they are only tried
// once per crawl session.
func (r *RobotsTxtAuditor) rulesFor(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.rules[host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.rules[host]; ok {
		return data, nil
	}

	data, err := r.fetch(ctx, host)
	r.rules[host] = data
	return data, err
}

// fetch reads and parses host's robots.txt. Any status of 400 or higher
// reads as having no rules at all.
func (r *RobotsTxtAuditor) fetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	page, err := r.fetcher.Fetch(ctx, host+"/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	if page.Error != "" {
		return nil, fmt.Errorf("fetch error: %s", page.Error)
	}
	if page.StatusCode >= 400 {
		return nil, nil
	}

	parsed, err := robotstxt.FromBytes(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return parsed, nil
}
