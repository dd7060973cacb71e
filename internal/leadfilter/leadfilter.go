// Package leadfilter screens search results before they are scraped. Marketplace
// and aggregator domains never hold a single company's own contact details, and
// listicle pages describe many companies at once, so both are dropped early.
package leadfilter

import (
	"net/url"
	"strings"

	"github.com/FranksOps/prospect/internal/serp"
)

// DefaultBlockedDomains returns the standard list of marketplace, directory and
// social domains that are excluded from lead candidates.
func DefaultBlockedDomains() []string {
	return []string{
		"alibaba.com",
		"thomasnet.com",
		"yellowpages",
		"quora.com",
		"made-in-china.com",
		"reddit.com",
		"facebook.com",
		"globalsources.com",
		"homedepot.com",
	}
}

// DefaultListicleWords returns the title words that mark a result as a listicle
// or roundup article rather than a company site.
func DefaultListicleWords() []string {
	return []string{"top", "best", "guide", "list", "review"}
}

// Config controls filter behavior. Extra entries extend the defaults, they do
// not replace them.
type Config struct {
	ExtraDomains []string
	ExtraWords   []string
}

// Filter screens search results against blocked domains and listicle titles.
type Filter struct {
	domains []string
	words   []string
}

// New creates a Filter with the default lists plus any extras from cfg.
func New(cfg Config) *Filter {
	f := &Filter{
		domains: DefaultBlockedDomains(),
		words:   DefaultListicleWords(),
	}
	for _, d := range cfg.ExtraDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			f.domains = append(f.domains, d)
		}
	}
	for _, w := range cfg.ExtraWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			f.words = append(f.words, w)
		}
	}
	return f
}

// BlockedURL reports whether raw points at a blocked domain. Patterns with a
// dot match the host and its subdomains exactly; bare patterns such as
// "yellowpages" match any host containing them, covering regional TLDs.
func (f *Filter) BlockedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range f.domains {
		if strings.Contains(d, ".") {
			if host == d || strings.HasSuffix(host, "."+d) {
				return true
			}
		} else if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

// ListicleTitle reports whether title looks like a roundup article. Matching is
// word based so that "top" does not trigger on "Stoppini Workshop".
func (f *Filter) ListicleTitle(title string) bool {
	for _, raw := range strings.Fields(strings.ToLower(title)) {
		word := strings.Trim(raw, ".,:;!?\"'()[]")
		for _, w := range f.words {
			if word == w {
				return true
			}
		}
	}
	return false
}

// Organic returns the results that survive both checks, preserving order.
func (f *Filter) Organic(results []serp.Result) []serp.Result {
	kept := make([]serp.Result, 0, len(results))
	for _, r := range results {
		if f.BlockedURL(r.URL) || f.ListicleTitle(r.Title) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
