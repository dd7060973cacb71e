package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/FranksOps/prospect/internal/extract"
	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/pkg/ratelimit"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// DefaultSectionKeywords returns the link words that mark a page as likely to
// hold company or contact information.
func DefaultSectionKeywords() []string {
	return []string{"about", "products", "contact", "contact us", "services", "portfolio", "get in touch"}
}

// SiteConfig provides parameters for crawling a single company site.
type SiteConfig struct {
	// MaxPages caps the total pages fetched per site, homepage included.
	// Zero selects 8.
	MaxPages    int
	Concurrency int
	// Keywords mark internal links worth following. Empty selects
	// DefaultSectionKeywords.
	Keywords []string
	// RespectRobots specifies whether to check robots.txt before fetching
	RespectRobots bool
	// UseSitemap consults the site's sitemap for candidate pages when the
	// homepage links alone do not fill MaxPages.
	UseSitemap bool
	// UserAgent is the User-Agent string to use when checking robots.txt
	UserAgent string
	// RequestsPerSecond limits the fetch rate (0 = unlimited)
	RequestsPerSecond float64
	// Jitter applies randomness to the rate limiter (0.0 to 1.0)
	Jitter float64
}

// PageText is one crawled page reduced to readable text.
type PageText struct {
	URL     string `json:"url"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

// Site aggregates the readable text and contact details of a company website.
type Site struct {
	Domain   string           `json:"domain"`
	Pages    []PageText       `json:"pages"`
	Contacts extract.Contacts `json:"contacts"`
}

// Document renders the site as one delimited text block per page, suitable
// for contact extraction and summarization.
func (s *Site) Document() string {
	var b strings.Builder
	for _, p := range s.Pages {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", p.Section, p.Text)
	}
	return b.String()
}

// Crawler fetches a company website's homepage plus the internal pages most
// likely to carry contact and company details.
type Crawler struct {
	cfg      SiteConfig
	fetcher  *Fetcher
	logger   *slog.Logger
	auditor  *RobotsTxtAuditor
	sitemaps *SitemapFetcher
	limiter  *ratelimit.Limiter
}

// NewCrawler creates a new site crawler.
func NewCrawler(cfg SiteConfig, fetcher *Fetcher, logger *slog.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 8
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = DefaultSectionKeywords()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "*" // default generic user-agent for robots.txt
	}
	if logger == nil {
		logger = slog.Default()
	}

	var auditor *RobotsTxtAuditor
	if cfg.RespectRobots {
		auditor = NewRobotsTxtAuditor(fetcher, logger)
	}

	return &Crawler{
		cfg:      cfg,
		fetcher:  fetcher,
		logger:   logger,
		auditor:  auditor,
		sitemaps: NewSitemapFetcher(fetcher, logger),
		limiter:  ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Jitter),
	}
}

type candidate struct {
	URL     string
	Section string
}

// CrawlSite fetches the homepage of siteURL and up to MaxPages-1 relevant
// internal pages. Candidate pages that fail to fetch are skipped; a homepage
// failure aborts the crawl since nothing useful can be read from the site.
func (c *Crawler) CrawlSite(ctx context.Context, siteURL string) (*Site, error) {
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}

	if c.auditor != nil {
		allowed, err := c.auditor.IsAllowed(ctx, siteURL, c.cfg.UserAgent)
		if err != nil {
			c.logger.Warn("error checking robots.txt", "url", siteURL, "err", err)
		} else if !allowed {
			return nil, fmt.Errorf("homepage disallowed by robots.txt: %s", siteURL)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter failed: %w", err)
	}

	home, err := c.fetcher.Fetch(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	if home.Error != "" {
		return nil, fmt.Errorf("homepage fetch failed: %s", home.Error)
	}
	if home.Blocked {
		return nil, fmt.Errorf("homepage blocked by %s", home.BlockSource)
	}
	if !home.OK() {
		return nil, fmt.Errorf("homepage returned status %d", home.StatusCode)
	}

	// Redirects may land on a different host (www vs apex); resolve links
	// against where the homepage actually lives.
	baseRaw := siteURL
	if home.FinalURL != "" {
		baseRaw = home.FinalURL
	}
	base, err := url.Parse(baseRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid homepage url: %w", err)
	}

	site := &Site{
		Domain: base.Hostname(),
		Pages:  []PageText{{URL: baseRaw, Section: "Home", Text: ExtractText(home.Body)}},
	}

	candidates := c.selectCandidates(base, home.Body)

	if c.cfg.UseSitemap && len(candidates) < c.cfg.MaxPages-1 {
		candidates = c.appendSitemapCandidates(ctx, base, candidates)
	}

	if len(candidates) > c.cfg.MaxPages-1 {
		candidates = candidates[:c.cfg.MaxPages-1]
	}

	// Fetch candidates concurrently but keep the output in candidate order
	// so repeated crawls of the same site produce the same document.
	results := make([]*PageText, len(candidates))
	bodies := make([][]byte, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i, cand := range candidates {
		g.Go(func() error {
			if c.auditor != nil {
				allowed, err := c.auditor.IsAllowed(gCtx, cand.URL, c.cfg.UserAgent)
				if err != nil {
					c.logger.Warn("error checking robots.txt", "url", cand.URL, "err", err)
				} else if !allowed {
					c.logger.Debug("url blocked by robots.txt", "url", cand.URL)
					return nil
				}
			}

			if err := c.limiter.Wait(gCtx); err != nil {
				return err
			}

			c.logger.Debug("fetching", "url", cand.URL, "section", cand.Section)

			page, err := c.fetcher.Fetch(gCtx, cand.URL)
			if err != nil {
				return err
			}
			if page.Error != "" || !page.OK() {
				c.logger.Warn("skipping page", "url", cand.URL, "status", page.StatusCode, "err", page.Error)
				return nil
			}
			if !page.HTML() {
				return nil
			}

			results[i] = &PageText{URL: cand.URL, Section: cand.Section, Text: ExtractText(page.Body)}
			bodies[i] = page.Body
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	site.Contacts = extract.FromHTML(home.Body)

	for i, r := range results {
		if r == nil || r.Text == "" {
			continue
		}
		site.Pages = append(site.Pages, *r)
		site.Contacts.Merge(extract.FromHTML(bodies[i]))
	}

	metrics.RecordExtract("email", len(site.Contacts.Emails))
	metrics.RecordExtract("phone", len(site.Contacts.Phones))
	if site.Contacts.LinkedIn != "" {
		metrics.RecordExtract("linkedin", 1)
	}

	return site, nil
}

// selectCandidates picks same-host links from the homepage whose anchor text
// or path matches a section keyword, deduplicated in document order.
func (c *Crawler) selectCandidates(base *url.URL, body []byte) []candidate {
	seen := map[string]struct{}{normalizeURL(base): {}}
	var out []candidate

	for _, l := range extractLinks(base, body) {
		u, err := url.Parse(l.URL)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		if !sameHost(base.Hostname(), u.Hostname()) {
			continue
		}

		key := normalizeURL(u)
		if _, dup := seen[key]; dup {
			continue
		}

		section, ok := c.classify(l.Anchor, u.Path)
		if !ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, candidate{URL: u.String(), Section: section})
	}

	return out
}

// appendSitemapCandidates fills remaining page slots from the site's sitemaps.
func (c *Crawler) appendSitemapCandidates(ctx context.Context, base *url.URL, candidates []candidate) []candidate {
	if c.auditor == nil {
		c.auditor = NewRobotsTxtAuditor(c.fetcher, c.logger)
	}

	maps, err := c.auditor.SitemapExtracts(ctx, base.Scheme+"://"+base.Host)
	if err != nil || len(maps) == 0 {
		return candidates
	}

	seen := make(map[string]struct{}, len(candidates)+1)
	seen[normalizeURL(base)] = struct{}{}
	for _, cand := range candidates {
		if u, err := url.Parse(cand.URL); err == nil {
			seen[normalizeURL(u)] = struct{}{}
		}
	}

	for _, m := range maps {
		urls, err := c.sitemaps.FetchSitemap(ctx, m)
		if err != nil {
			c.logger.Debug("sitemap fetch failed", "url", m, "err", err)
			continue
		}
		for _, raw := range urls {
			if len(candidates) >= c.cfg.MaxPages-1 {
				return candidates
			}
			u, err := url.Parse(raw)
			if err != nil || !sameHost(base.Hostname(), u.Hostname()) {
				continue
			}
			key := normalizeURL(u)
			if _, dup := seen[key]; dup {
				continue
			}
			section, ok := c.classify("", u.Path)
			if !ok {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, candidate{URL: u.String(), Section: section})
		}
	}

	return candidates
}

// classify matches a link against the section keywords and names the section
// after the first keyword that hits.
func (c *Crawler) classify(anchor, path string) (string, bool) {
	anchor = strings.ToLower(strings.TrimSpace(anchor))
	path = strings.ToLower(path)

	for _, kw := range c.cfg.Keywords {
		if strings.Contains(anchor, kw) {
			return sectionName(kw), true
		}
		// Paths spell multi-word keywords with dashes or nothing at all
		slug := strings.ReplaceAll(kw, " ", "-")
		if strings.Contains(path, slug) || strings.Contains(path, strings.ReplaceAll(kw, " ", "")) {
			return sectionName(kw), true
		}
	}
	return "", false
}

func sectionName(keyword string) string {
	words := strings.Fields(keyword)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sameHost(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a != "" && a == b
}

func normalizeURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	s := c.String()
	return strings.TrimSuffix(s, "/")
}

type link struct {
	URL    string
	Anchor string
}

func extractLinks(base *url.URL, body []byte) []link {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []link
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}

		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		// Resolve relative URLs
		resolved := base.ResolveReference(u)
		links = append(links, link{URL: resolved.String(), Anchor: s.Text()})
	})

	return links
}

// ExtractText reduces an HTML document to its visible text with whitespace
// collapsed to single spaces.
func ExtractText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript").Remove()

	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}

	return strings.Join(strings.Fields(sel.Text()), " ")
}
