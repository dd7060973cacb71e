package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/prospect/pkg/httpclient"
)

// DefaultBaseURL is the production Serper endpoint.
const DefaultBaseURL = "https://google.serper.dev"

const (
	defaultNum  = 10
	defaultLang = "en"
)

// SerperConfig defines the setup for the Serper provider.
type SerperConfig struct {
	// APIKey authenticates against Serper. Empty disables the provider.
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// Timeout for a single search call. Defaults to 20s.
	Timeout time.Duration
	// Logger for request diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Serper calls the Serper REST API, which proxies Google search results as
// structured JSON.
type Serper struct {
	apiKey  string
	baseURL string
	client  *httpclient.Client
	logger  *slog.Logger
}

// ensure Serper implements Provider
var _ Provider = (*Serper)(nil)

// NewSerper creates a search Provider backed by Serper. When no API key is
// configured it returns Disabled, so callers always get a usable Provider.
func NewSerper(cfg SerperConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return Disabled{}, nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create serper client: %w", err)
	}

	return &Serper{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  cfg.Logger,
	}, nil
}

// serper wire format
type serperResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type serperKnowledgeGraph struct {
	Title       string            `json:"title"`
	Type        string            `json:"type"`
	Website     string            `json:"website"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
}

type serperResponse struct {
	Organic        []serperResult        `json:"organic"`
	KnowledgeGraph *serperKnowledgeGraph `json:"knowledgeGraph"`
	Credits        int                   `json:"credits"`
}

// Search runs one query against the Serper API. A non-200 response is an
// error; callers treat search failures as an empty page and move on.
func (s *Serper) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if opts.Num <= 0 {
		opts.Num = defaultNum
	}
	if opts.Lang == "" {
		opts.Lang = defaultLang
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", opts.Lang)
	params.Set("start", strconv.Itoa(opts.Offset))
	params.Set("num", strconv.Itoa(opts.Num))

	endpoint := s.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn("failed to close serper response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper http %d for query %q", resp.StatusCode, query)
	}

	var wire serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}

	out := &Response{
		Query:   query,
		Organic: make([]Result, 0, len(wire.Organic)),
		Credits: wire.Credits,
	}

	for i, r := range wire.Organic {
		pos := r.Position
		if pos == 0 {
			pos = opts.Offset + i + 1
		}
		out.Organic = append(out.Organic, Result{
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
			Position: pos,
		})
	}

	if wire.KnowledgeGraph != nil {
		out.KnowledgeGraph = &KnowledgeGraph{
			Title:       wire.KnowledgeGraph.Title,
			Type:        wire.KnowledgeGraph.Type,
			Website:     wire.KnowledgeGraph.Website,
			Description: wire.KnowledgeGraph.Description,
			Attributes:  wire.KnowledgeGraph.Attributes,
		}
	}

	return out, nil
}
