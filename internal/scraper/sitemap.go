package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/oxffaa/gopher-parse-sitemap"
)

// SitemapFetcher reads sitemap XML to discover pages the homepage never
// links, such as contact pages reachable only through menus or scripts.
type SitemapFetcher struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewSitemapFetcher creates a SitemapFetcher reading through fetcher.
func NewSitemapFetcher(fetcher *Fetcher, logger *slog.Logger) *SitemapFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapFetcher{
		fetcher: fetcher,
		logger:  logger,
	}
}

// FetchSitemap returns the page URLs below sitemapURL. Sitemap indexes are
// followed recursively, skipping nested maps that fail to load.
func (s *SitemapFetcher) FetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	s.logger.Debug("fetching sitemap", "url", sitemapURL)

	page, err := s.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	if page.Error != "" {
		return nil, fmt.Errorf("fetch error: %s", page.Error)
	}
	if page.StatusCode >= 400 {
		return nil, fmt.Errorf("bad status code: %d", page.StatusCode)
	}

	urls, parseErr := parseURLSet(page.Body)
	if parseErr == nil && len(urls) > 0 {
		return urls, nil
	}

	// Not a flat sitemap; it may be an index of further sitemaps.
	nested, indexErr := parseSitemapIndex(page.Body)
	if indexErr != nil || (len(urls) == 0 && len(nested) == 0) {
		return nil, fmt.Errorf("failed to parse as sitemap or index: %w", parseErr)
	}

	for _, nestedURL := range nested {
		nestedURLs, err := s.FetchSitemap(ctx, nestedURL)
		if err != nil {
			s.logger.Warn("failed to fetch nested sitemap", "url", nestedURL, "err", err)
			continue
		}
		urls = append(urls, nestedURLs...)
	}

	return urls, nil
}

// parseURLSet reads a flat urlset sitemap.
func parseURLSet(body []byte) ([]string, error) {
	var urls []string
	err := sitemap.Parse(bytes.NewReader(body), func(e sitemap.Entry) error {
		urls = append(urls, e.GetLocation())
		return nil
	})
	return urls, err
}

// parseSitemapIndex reads a sitemapindex of nested sitemap locations.
func parseSitemapIndex(body []byte) ([]string, error) {
	var locs []string
	err := sitemap.ParseIndex(bytes.NewReader(body), func(e sitemap.IndexEntry) error {
		locs = append(locs, e.GetLocation())
		return nil
	})
	return locs, err
}
