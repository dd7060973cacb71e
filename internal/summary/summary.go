// Package summary turns crawled site text into a structured company profile.
// With an OpenAI API key configured it asks a chat model for the profile;
// without one it falls back to a local extractive summary so lead generation
// keeps working offline.
package summary

import (
	"context"
	"errors"
	"regexp"

	"github.com/FranksOps/prospect/internal/analyzer"
	"github.com/FranksOps/prospect/internal/metrics"
)

// ErrNoAPIKey is returned by the OpenAI client when no key is configured.
var ErrNoAPIKey = errors.New("summary api key not configured")

// Request carries everything needed to summarize one company.
type Request struct {
	// Name is the company name as discovered in search results.
	Name string
	// Website is the company's homepage, included for model context.
	Website string
	// Content is the combined site text produced by the crawler.
	Content string
	// Terms bias extractive summaries toward the search intent.
	Terms []string
}

// Summarizer produces a company summary from crawled site text.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

// New selects the OpenAI summarizer when a key is configured and the
// extractive fallback otherwise.
func New(cfg Config) Summarizer {
	if cfg.APIKey != "" {
		c, err := NewOpenAI(cfg)
		if err == nil {
			return c
		}
	}
	return NewExtractive(0)
}

// Extractive summarizes by selecting the most relevant sentences locally.
type Extractive struct {
	maxSentences int
}

// ensure Extractive implements Summarizer
var _ Summarizer = (*Extractive)(nil)

// NewExtractive creates the fallback summarizer. maxSentences <= 0 selects
// the default.
func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = analyzer.DefaultMaxSentences
	}
	return &Extractive{maxSentences: maxSentences}
}

// Crawled site documents delimit page sections with "--- Name ---" lines.
// The markers help the chat model but are noise in extracted sentences.
var sectionMarker = regexp.MustCompile(`(?m)^--- .+ ---$`)

// Summarize picks the sentences that best match the request terms.
func (e *Extractive) Summarize(_ context.Context, req Request) (string, error) {
	content := sectionMarker.ReplaceAllString(req.Content, "")
	s := analyzer.Summarize(content, req.Terms, e.maxSentences)
	metrics.RecordSummary("extractive", "ok")
	return s, nil
}
