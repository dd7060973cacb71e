package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/prospect/internal/fingerprint"
)

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(FetchConfig{
		Timeout:     5 * time.Second,
		Retries:     -1,
		Fingerprint: fingerprint.ProfileGo,
	})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	return fetcher
}

func TestCrawler_CrawlSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<h1>Firenze Arredi</h1>
			<p>Custom wood furniture since 1968.</p>
			<a href="/about">About Us</a>
			<a href="/contact">Contact</a>
			<a href="/contact">Contact again</a>
			<a href="/blog">Blog</a>
			<a href="https://other.example/contact">Partner contact</a>
		</body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>Family workshop in Florence.</body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>Email us at info@firenzearredi.example</body></html>`))
	})
	mux.HandleFunc("/blog", func(w http.ResponseWriter, r *http.Request) {
		t.Error("irrelevant page should not be fetched")
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	crawler := NewCrawler(SiteConfig{Concurrency: 2}, testFetcher(t), slog.Default())

	site, err := crawler.CrawlSite(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(site.Pages) != 3 {
		t.Fatalf("expected 3 pages (home, about, contact), got %d: %+v", len(site.Pages), site.Pages)
	}

	if site.Pages[0].Section != "Home" || !strings.Contains(site.Pages[0].Text, "Firenze Arredi") {
		t.Errorf("unexpected homepage text: %+v", site.Pages[0])
	}
	if site.Pages[1].Section != "About" || !strings.Contains(site.Pages[1].Text, "Family workshop") {
		t.Errorf("unexpected about page: %+v", site.Pages[1])
	}
	if site.Pages[2].Section != "Contact" || !strings.Contains(site.Pages[2].Text, "info@firenzearredi.example") {
		t.Errorf("unexpected contact page: %+v", site.Pages[2])
	}

	doc := site.Document()
	if !strings.Contains(doc, "\n--- Home ---\n") || !strings.Contains(doc, "\n--- Contact ---\n") {
		t.Errorf("expected delimited sections in document, got:\n%s", doc)
	}

	if len(site.Contacts.Emails) != 1 || site.Contacts.Emails[0] != "info@firenzearredi.example" {
		t.Errorf("expected contact email from crawled pages, got %v", site.Contacts.Emails)
	}
}

func TestCrawler_MaxPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<a href="/about">About</a>
			<a href="/services">Services</a>
			<a href="/products">Products</a>
			<a href="/contact">Contact</a>
		</body></html>`))
	})
	for _, p := range []string{"/about", "/services", "/products", "/contact"} {
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>content</body></html>`))
		})
	}

	ts := httptest.NewServer(mux)
	defer ts.Close()

	crawler := NewCrawler(SiteConfig{MaxPages: 3}, testFetcher(t), slog.Default())

	site, err := crawler.CrawlSite(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(site.Pages) != 3 {
		t.Errorf("expected crawl capped at 3 pages, got %d", len(site.Pages))
	}

	// Candidates are taken in document order
	if site.Pages[1].Section != "About" || site.Pages[2].Section != "Services" {
		t.Errorf("unexpected page order: %+v", site.Pages)
	}
}

func TestCrawler_SkipsFailedPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<a href="/about">About</a>
			<a href="/contact">Contact</a>
		</body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>call +39 055 1234 5678</body></html>`))
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	crawler := NewCrawler(SiteConfig{}, testFetcher(t), slog.Default())

	site, err := crawler.CrawlSite(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(site.Pages) != 2 {
		t.Fatalf("expected failed page to be skipped, got %d pages", len(site.Pages))
	}
	if site.Pages[1].Section != "Contact" {
		t.Errorf("expected surviving page to be Contact, got %s", site.Pages[1].Section)
	}
}

func TestCrawler_HomepageFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	crawler := NewCrawler(SiteConfig{}, testFetcher(t), slog.Default())

	_, err := crawler.CrawlSite(context.Background(), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected homepage status error, got %v", err)
	}
}

func TestCrawler_ExternalHostScope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="http://external.example/about">About them</a></body></html>`))
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	crawler := NewCrawler(SiteConfig{}, testFetcher(t), slog.Default())

	site, err := crawler.CrawlSite(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(site.Pages) != 1 {
		t.Errorf("expected only the homepage, got %d pages", len(site.Pages))
	}
}

func TestCrawler_ContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>slow</body></html>`))
	}))
	defer ts.Close()

	crawler := NewCrawler(SiteConfig{}, testFetcher(t), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := crawler.CrawlSite(ctx, ts.URL)
	if err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestExtractText(t *testing.T) {
	html := `<html><head><title>T</title><style>body{color:red}</style></head>
	<body><script>var x = 1;</script><h1>Hello</h1>
	<p>world   and
	more</p></body></html>`

	text := ExtractText([]byte(html))
	if text != "Hello world and more" {
		t.Errorf("unexpected text: %q", text)
	}
	if strings.Contains(text, "var x") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content leaked into text: %q", text)
	}
}
