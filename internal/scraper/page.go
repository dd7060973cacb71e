package scraper

import (
	"net/http"
	"strings"
	"time"
)

// Page is the outcome of fetching a single URL. Transport failures are
// recorded in Error instead of being returned, so a failed fetch is still
// usable as data by the caller.
type Page struct {
	ID          string        `json:"id"`
	URL         string        `json:"url"`
	FinalURL    string        `json:"final_url,omitempty"`
	StatusCode  int           `json:"status_code"`
	Headers     http.Header   `json:"headers,omitempty"`
	Body        []byte        `json:"body,omitempty"`
	Duration    time.Duration `json:"duration"`
	FetchedAt   time.Time     `json:"fetched_at"`
	Blocked     bool          `json:"blocked"`
	BlockSource string        `json:"block_source,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// OK reports whether the fetch produced a usable 2xx response that was not
// blocked by bot protection.
func (p *Page) OK() bool {
	return p.Error == "" && !p.Blocked && p.StatusCode >= 200 && p.StatusCode < 300
}

// HTML reports whether the response declared an HTML content type.
func (p *Page) HTML() bool {
	ct := p.Headers.Get("Content-Type")
	return strings.Contains(strings.ToLower(ct), "text/html")
}
