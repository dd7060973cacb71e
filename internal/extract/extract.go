// Package extract pulls contact details out of fetched pages. Emails and
// phones are matched both in visible text and in mailto/tel anchors, since
// sites frequently publish one without the other.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
	linkedInPattern = regexp.MustCompile(`https?://(?:[a-z]{2,3}\.)?linkedin\.com/(?:company|in|school)/[A-Za-z0-9\-_.%]+`)

	// Profile pages spell phone numbers with spaces and dashes only; the
	// looser phonePattern picks up too much of the surrounding markup there.
	profilePhonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{7,}\d`)
	locationPattern     = regexp.MustCompile(`Location\s*[:\-]?\s*([A-Za-z0-9,\s\-]+)`)
)

// Contacts holds the details pulled from one or more pages. Slices keep
// first-seen order so the primary email and phone are stable.
type Contacts struct {
	Emails   []string `json:"emails,omitempty"`
	Phones   []string `json:"phones,omitempty"`
	LinkedIn string   `json:"linkedin,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Empty reports whether nothing was extracted.
func (c *Contacts) Empty() bool {
	return len(c.Emails) == 0 && len(c.Phones) == 0 && c.LinkedIn == "" && c.Location == ""
}

// Merge folds other into c. New emails and phones are appended in order,
// single-valued fields keep their first non-empty value.
func (c *Contacts) Merge(other Contacts) {
	for _, e := range other.Emails {
		if !contains(c.Emails, e) {
			c.Emails = append(c.Emails, e)
		}
	}
	for _, p := range other.Phones {
		if !contains(c.Phones, p) {
			c.Phones = append(c.Phones, p)
		}
	}
	if c.LinkedIn == "" {
		c.LinkedIn = other.LinkedIn
	}
	if c.Location == "" {
		c.Location = other.Location
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// assetSuffixes mark pattern matches that are srcset-style asset names, such
// as "logo@2x.png", rather than addresses.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".css", ".js"}

func validEmail(s string) bool {
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(s, suffix) {
			return false
		}
	}
	return true
}

// FromHTML extracts contacts from an HTML document: mailto and tel anchors,
// LinkedIn profile links, and pattern matches in the visible text.
func FromHTML(body []byte) Contacts {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return FromText(string(body))
	}

	var out Contacts

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)

		switch {
		case strings.HasPrefix(strings.ToLower(href), "mailto:"):
			addr := href[len("mailto:"):]
			// mailto links often carry ?subject=... parameters
			if idx := strings.Index(addr, "?"); idx >= 0 {
				addr = addr[:idx]
			}
			addr = strings.ToLower(strings.TrimSpace(addr))
			if emailPattern.MatchString(addr) && validEmail(addr) && !contains(out.Emails, addr) {
				out.Emails = append(out.Emails, addr)
			}
		case strings.HasPrefix(strings.ToLower(href), "tel:"):
			num := strings.TrimSpace(href[len("tel:"):])
			if ValidPhone(num) && !contains(out.Phones, num) {
				out.Phones = append(out.Phones, num)
			}
		default:
			if out.LinkedIn == "" {
				if m := linkedInPattern.FindString(href); m != "" {
					out.LinkedIn = m
				}
			}
		}
	})

	doc.Find("script, style, noscript").Remove()
	text := doc.Text()

	out.Merge(FromText(text))
	return out
}

// FromText extracts contacts from plain text using pattern matching alone.
func FromText(text string) Contacts {
	var out Contacts

	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if validEmail(m) && !contains(out.Emails, m) {
			out.Emails = append(out.Emails, m)
		}
	}

	for _, m := range phonePattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if ValidPhone(m) && !contains(out.Phones, m) {
			out.Phones = append(out.Phones, m)
		}
	}

	out.LinkedIn = linkedInPattern.FindString(text)

	return out
}

// LinkedInURL returns the first LinkedIn company, profile or school URL in s.
func LinkedInURL(s string) string {
	return linkedInPattern.FindString(s)
}

// ValidPhone reports whether s carries at least seven digits, filtering out
// matches that are mostly punctuation or dates.
func ValidPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

// ProfilePhone pulls the first phone number from LinkedIn profile text.
func ProfilePhone(text string) string {
	for _, m := range profilePhonePattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if ValidPhone(m) {
			return m
		}
	}
	return ""
}

// ProfileLocation pulls a "Location: ..." value from LinkedIn profile text.
func ProfileLocation(text string) string {
	m := locationPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.Join(strings.Fields(m[1]), " ")
}
