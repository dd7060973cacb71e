// Package pipeline orchestrates lead generation end to end: search the web
// for candidate companies, filter out marketplaces and listicles, crawl each
// company site for contacts, optionally enrich with a generated profile, and
// persist the resulting records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/prospect/internal/extract"
	"github.com/FranksOps/prospect/internal/leadfilter"
	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/scraper"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/summary"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Search window bounds. Offsets past maxOffset return junk results, and more
// than maxResults leads per run exhausts the search credits too quickly.
const (
	DefaultMaxResults = 5
	maxResults        = 50
	maxOffset         = 100
)

// DefaultCountry scopes queries when the request names none.
const DefaultCountry = "Italy"

// ErrNoResults is returned by Lookup when no usable website turns up for a
// company name.
var ErrNoResults = errors.New("no results found")

// DefaultTerms returns the stock search phrases offered by the UI and CLI.
func DefaultTerms() []string {
	return []string{
		"Luxury wood furniture manufacturer",
		"Premium wood manufacturing",
		"Custom wood furniture manufacturer",
	}
}

// Config wires the pipeline's collaborators.
type Config struct {
	Provider   serp.Provider
	Crawler    *scraper.Crawler
	Filter     *leadfilter.Filter
	Summarizer summary.Summarizer
	// Fetcher is used for direct page fetches outside a site crawl, such as
	// LinkedIn profile pages during lookups. Optional.
	Fetcher *scraper.Fetcher
	// Backend persists produced companies. Optional.
	Backend storage.Backend
	// Concurrency bounds simultaneous site crawls. Zero selects 4.
	Concurrency int
	Logger      *slog.Logger
}

// Pipeline turns search queries into stored company records.
type Pipeline struct {
	provider    serp.Provider
	crawler     *scraper.Crawler
	filter      *leadfilter.Filter
	summarizer  summary.Summarizer
	fetcher     *scraper.Fetcher
	backend     storage.Backend
	concurrency int
	logger      *slog.Logger
}

// New validates cfg and creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("search provider is required")
	}
	if cfg.Crawler == nil {
		return nil, fmt.Errorf("site crawler is required")
	}
	if cfg.Filter == nil {
		cfg.Filter = leadfilter.New(leadfilter.Config{})
	}
	if cfg.Summarizer == nil {
		cfg.Summarizer = summary.NewExtractive(0)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		provider:    cfg.Provider,
		crawler:     cfg.Crawler,
		filter:      cfg.Filter,
		summarizer:  cfg.Summarizer,
		fetcher:     cfg.Fetcher,
		backend:     cfg.Backend,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}, nil
}

// Request describes one lead generation run.
type Request struct {
	// Term is the product or industry phrase to search for. Empty selects
	// the first default term.
	Term string `json:"term"`
	// Requirements further narrows the query, e.g. "solid oak, export ready".
	Requirements string `json:"requirements,omitempty"`
	// Country scopes the query geographically. Empty selects DefaultCountry.
	Country string `json:"country,omitempty"`
	// MaxResults caps how many companies the run produces, clamped to
	// [1, 50]. Zero selects DefaultMaxResults.
	MaxResults int `json:"max_results,omitempty"`
	// Offset skips that many organic results, for paging through a query.
	// Clamped to [0, 100].
	Offset int `json:"offset,omitempty"`
	// Enrich adds a generated company profile and a LinkedIn lookup for
	// companies whose site does not link one.
	Enrich bool `json:"enrich,omitempty"`
}

// Batch is the outcome of one Generate run.
type Batch struct {
	// Query is the search query the run executed.
	Query string `json:"query"`
	// Companies holds the produced records in search result order.
	Companies []*storage.Company `json:"companies"`
	// NextOffset is the Offset to pass to resume paging after this batch.
	NextOffset int `json:"next_offset"`
	// Started and Duration describe the run for reporting.
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

func (r *Request) normalize() {
	r.Term = strings.TrimSpace(r.Term)
	if r.Term == "" {
		r.Term = DefaultTerms()[0]
	}
	r.Requirements = strings.TrimSpace(r.Requirements)
	r.Country = strings.TrimSpace(r.Country)
	if r.Country == "" {
		r.Country = DefaultCountry
	}
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	} else if r.MaxResults > maxResults {
		r.MaxResults = maxResults
	}
	if r.Offset < 0 {
		r.Offset = 0
	} else if r.Offset > maxOffset {
		r.Offset = maxOffset
	}
}

// Query renders the search query for a request.
func (r Request) Query() string {
	parts := []string{r.Term}
	if r.Requirements != "" {
		parts = append(parts, r.Requirements)
	}
	parts = append(parts, "in", r.Country)
	return strings.Join(parts, " ")
}

type lead struct {
	name   string
	result serp.Result
}

// Generate runs one lead generation batch. Search failures abort the run;
// per-company crawl and enrichment failures only drop that company.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Batch, error) {
	req.normalize()
	started := time.Now()

	query := req.Query()
	p.logger.Info("generating leads", "query", query, "max_results", req.MaxResults, "offset", req.Offset)

	leads, consumed, err := p.collectLeads(ctx, query, req)
	if err != nil {
		return nil, err
	}

	companies := make([]*storage.Company, len(leads))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, l := range leads {
		g.Go(func() error {
			company, err := p.buildCompany(gCtx, query, l, req)
			if err != nil {
				p.logger.Warn("skipping lead", "company", l.name, "url", l.result.URL, "err", err)
				return nil
			}
			companies[i] = company
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &Batch{
		Query:      query,
		NextOffset: req.Offset + consumed,
		Started:    started.UTC(),
	}

	for _, c := range companies {
		if c == nil {
			continue
		}
		metrics.RecordCompany("search")
		p.save(ctx, c)
		batch.Companies = append(batch.Companies, c)
	}

	batch.Duration = time.Since(started)
	p.logger.Info("batch complete", "query", query, "companies", len(batch.Companies), "duration", batch.Duration)

	return batch, nil
}

// collectLeads pages through search results until it has MaxResults distinct
// companies or the results run out. The returned consumed count is the number
// of organic results walked, which callers add to the offset to resume.
func (p *Pipeline) collectLeads(ctx context.Context, query string, req Request) ([]lead, int, error) {
	var leads []lead
	seen := make(map[string]struct{})
	consumed := 0

	for len(leads) < req.MaxResults && req.Offset+consumed < maxOffset+maxResults {
		resp, err := p.search(ctx, query, serp.Options{Offset: req.Offset + consumed})
		if err != nil {
			if len(leads) > 0 {
				p.logger.Warn("search page failed, continuing with partial results", "query", query, "err", err)
				break
			}
			return nil, 0, fmt.Errorf("search failed: %w", err)
		}

		if len(resp.Organic) == 0 {
			break
		}

		for _, r := range resp.Organic {
			consumed++

			if p.filter.BlockedURL(r.URL) || p.filter.ListicleTitle(r.Title) {
				continue
			}

			name := CompanyName(r.Title)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			leads = append(leads, lead{name: name, result: r})
			if len(leads) == req.MaxResults {
				break
			}
		}

		// A short page means the query has no further results.
		if len(resp.Organic) < 10 {
			break
		}
	}

	return leads, consumed, nil
}

// buildCompany crawls one candidate site and assembles its record.
func (p *Pipeline) buildCompany(ctx context.Context, query string, l lead, req Request) (*storage.Company, error) {
	site, err := p.crawler.CrawlSite(ctx, l.result.URL)
	if err != nil {
		return nil, err
	}

	company := &storage.Company{
		ID:        uuid.New().String(),
		Name:      l.name,
		Website:   l.result.URL,
		LinkedIn:  site.Contacts.LinkedIn,
		Location:  site.Contacts.Location,
		AllEmails: site.Contacts.Emails,
		AllPhones: site.Contacts.Phones,
		Source:    query,
		CreatedAt: time.Now().UTC(),
	}
	if len(site.Contacts.Emails) > 0 {
		company.Email = site.Contacts.Emails[0]
	}
	if len(site.Contacts.Phones) > 0 {
		company.Phone = site.Contacts.Phones[0]
	}

	if req.Enrich {
		if company.LinkedIn == "" {
			company.LinkedIn = p.findLinkedIn(ctx, l.name)
		}
		p.summarize(ctx, company, site, req)
	}

	return company, nil
}

// summarize fills company.Summary, logging instead of failing the lead when
// the summarizer errors.
func (p *Pipeline) summarize(ctx context.Context, company *storage.Company, site *scraper.Site, req Request) {
	terms := append(strings.Fields(req.Term), strings.Fields(req.Requirements)...)

	s, err := p.summarizer.Summarize(ctx, summary.Request{
		Name:    company.Name,
		Website: company.Website,
		Content: site.Document(),
		Terms:   terms,
	})
	if err != nil {
		p.logger.Warn("summary failed", "company", company.Name, "err", err)
		return
	}
	company.Summary = s
}

// findLinkedIn searches for a company's LinkedIn page. Best effort: any
// failure returns an empty string.
func (p *Pipeline) findLinkedIn(ctx context.Context, name string) string {
	resp, err := p.search(ctx, name+" LinkedIn", serp.Options{Num: 10})
	if err != nil {
		p.logger.Debug("linkedin search failed", "company", name, "err", err)
		return ""
	}

	for _, r := range resp.Organic {
		if u := extract.LinkedInURL(r.URL); u != "" {
			return u
		}
	}
	return ""
}

// Lookup researches a single company by name: its official website, LinkedIn
// page, site contacts, and a profile summary.
func (p *Pipeline) Lookup(ctx context.Context, name string) (*storage.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, serp.ErrEmptyQuery
	}

	query := name + " official website"
	p.logger.Info("looking up company", "name", name)

	resp, err := p.search(ctx, query, serp.Options{})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	company := &storage.Company{
		ID:        uuid.New().String(),
		Name:      name,
		Source:    query,
		CreatedAt: time.Now().UTC(),
	}

	if kg := resp.KnowledgeGraph; kg != nil {
		if kg.Title != "" {
			company.Name = kg.Title
		}
		company.Website = kg.Website
	}

	if company.Website == "" {
		for _, r := range p.filter.Organic(resp.Organic) {
			company.Website = r.URL
			if company.Name == name {
				if n := CompanyName(r.Title); n != "" {
					company.Name = n
				}
			}
			break
		}
	}

	if company.Website == "" {
		return nil, fmt.Errorf("no website found for %q: %w", name, ErrNoResults)
	}

	if site, err := p.crawler.CrawlSite(ctx, company.Website); err != nil {
		p.logger.Warn("site crawl failed", "company", company.Name, "err", err)
	} else {
		company.LinkedIn = site.Contacts.LinkedIn
		company.Location = site.Contacts.Location
		company.AllEmails = site.Contacts.Emails
		company.AllPhones = site.Contacts.Phones
		if len(site.Contacts.Emails) > 0 {
			company.Email = site.Contacts.Emails[0]
		}
		if len(site.Contacts.Phones) > 0 {
			company.Phone = site.Contacts.Phones[0]
		}
		p.summarize(ctx, company, site, Request{Term: company.Name})
	}

	if company.LinkedIn == "" {
		company.LinkedIn = p.findLinkedIn(ctx, company.Name)
	}
	if company.LinkedIn != "" && (company.Phone == "" || company.Location == "") {
		p.scrapeProfile(ctx, company)
	}

	metrics.RecordCompany("lookup")
	p.save(ctx, company)

	return company, nil
}

// scrapeProfile pulls a phone number and location off the company's LinkedIn
// page when the site itself did not provide them. LinkedIn blocks most
// automated clients, so this is strictly best effort.
func (p *Pipeline) scrapeProfile(ctx context.Context, company *storage.Company) {
	if p.fetcher == nil {
		return
	}

	page, err := p.fetcher.Fetch(ctx, company.LinkedIn)
	if err != nil || !page.OK() {
		p.logger.Debug("linkedin profile fetch failed", "company", company.Name)
		return
	}

	text := scraper.ExtractText(page.Body)
	if company.Phone == "" {
		if phone := extract.ProfilePhone(text); phone != "" {
			company.Phone = phone
			if !containsString(company.AllPhones, phone) {
				company.AllPhones = append(company.AllPhones, phone)
			}
		}
	}
	if company.Location == "" {
		company.Location = extract.ProfileLocation(text)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// search wraps the provider call with metrics.
func (p *Pipeline) search(ctx context.Context, query string, opts serp.Options) (*serp.Response, error) {
	resp, err := p.provider.Search(ctx, query, opts)
	if err != nil {
		metrics.RecordSearch("serper", "error", 0)
		return nil, err
	}
	metrics.RecordSearch("serper", "ok", len(resp.Organic))
	return resp, nil
}

// save persists a company if a backend is configured. Storage failures are
// logged, not returned, so a full batch still reaches the caller.
func (p *Pipeline) save(ctx context.Context, company *storage.Company) {
	if p.backend == nil {
		return
	}
	if err := p.backend.Save(ctx, company); err != nil {
		p.logger.Error("failed to save company", "company", company.Name, "err", err)
	}
}

// CompanyName derives a company name from a search result title by cutting
// the tagline after " - " or " | " separators.
func CompanyName(title string) string {
	name := title
	for _, sep := range []string{" - ", " | "} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	return strings.TrimSpace(name)
}
