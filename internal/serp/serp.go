package serp

import (
	"context"
	"errors"
)

// Sentinel errors callers can test with errors.Is. ErrNoAPIKey marks a
// provider that was never configured, which the UI reports differently from
// a query that failed.
var (
	ErrNoAPIKey   = errors.New("search api key not configured")
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Result is one organic search hit.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// KnowledgeGraph is the structured entity block some queries return. For a
// recognized company it often carries the official website, which beats
// guessing from organic results.
type KnowledgeGraph struct {
	Title       string            `json:"title"`
	Type        string            `json:"type"`
	Website     string            `json:"website"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Response is a full page of search results for one query.
type Response struct {
	Query          string          `json:"query"`
	Organic        []Result        `json:"organic"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph,omitempty"`
	Credits        int             `json:"credits"`
}

// Options tune a single search call.
type Options struct {
	Offset int    // result offset, passed through as the start parameter
	Num    int    // page size, defaults to 10
	Lang   string // interface language, defaults to "en"
}

// Provider abstracts a search engine backend. Implementations may call an
// official API or scrape; callers only see structured results.
type Provider interface {
	Search(ctx context.Context, query string, opts Options) (*Response, error)
}

// Disabled is the Provider installed when no API key is configured. Every
// call fails with ErrNoAPIKey so the caller can surface "search disabled"
// instead of a generic failure.
type Disabled struct{}

// ensure Disabled implements Provider
var _ Provider = Disabled{}

func (Disabled) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	return nil, ErrNoAPIKey
}
