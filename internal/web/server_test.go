package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/prospect/internal/config"
	"github.com/FranksOps/prospect/internal/pipeline"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService scripts pipeline outcomes for handler tests.
type fakeService struct {
	batch     *pipeline.Batch
	batchErr  error
	company   *storage.Company
	lookupErr error

	lastRequest pipeline.Request
	lastName    string
}

func (f *fakeService) Generate(_ context.Context, req pipeline.Request) (*pipeline.Batch, error) {
	f.lastRequest = req
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batch, nil
}

func (f *fakeService) Lookup(_ context.Context, name string) (*storage.Company, error) {
	f.lastName = name
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.company, nil
}

func testServer(t *testing.T, svc LeadService, status config.Status) *Server {
	t.Helper()
	s, err := New(Config{
		Service: svc,
		Status:  status,
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s
}

func company(name, email string) *storage.Company {
	return &storage.Company{
		ID:        name + "-id",
		Name:      name,
		Website:   "https://" + strings.ToLower(name) + ".example.com",
		Email:     email,
		CreatedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing service")
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{Search: true, Summaries: false})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got config.Status
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if !got.Search || got.Summaries {
		t.Errorf("expected search=true summaries=false, got %+v", got)
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store cache header, got %q", cc)
	}
}

func TestIndexRendersForm(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{Search: true, Summaries: true})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<form", pipeline.DefaultTerms()[0], pipeline.DefaultCountry} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestSearchFormRendersRows(t *testing.T) {
	svc := &fakeService{
		batch: &pipeline.Batch{
			Query:      "Premium wood manufacturing in Italy",
			Companies:  []*storage.Company{company("Firenze Arredi", "info@firenzearredi.example.com")},
			NextOffset: 10,
		},
	}
	s := testServer(t, svc, config.Status{Search: true})

	w := postForm(s, "/search", url.Values{
		"term":        {"Premium wood manufacturing"},
		"country":     {"Italy"},
		"max_results": {"5"},
		"enrich":      {"1"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Firenze Arredi") {
		t.Error("result row missing from page")
	}
	if !strings.Contains(body, "info@firenzearredi.example.com") {
		t.Error("result email missing from page")
	}
	if !strings.Contains(body, `name="offset" value="10"`) {
		t.Error("load more offset missing from page")
	}

	if svc.lastRequest.Term != "Premium wood manufacturing" {
		t.Errorf("unexpected term forwarded: %q", svc.lastRequest.Term)
	}
	if !svc.lastRequest.Enrich {
		t.Error("enrich checkbox not forwarded")
	}
	if svc.lastRequest.MaxResults != 5 {
		t.Errorf("expected max results 5, got %d", svc.lastRequest.MaxResults)
	}
}

func TestSearchFormCustomTermOverrides(t *testing.T) {
	svc := &fakeService{batch: &pipeline.Batch{}}
	s := testServer(t, svc, config.Status{Search: true})

	postForm(s, "/search", url.Values{
		"term":        {"Premium wood manufacturing"},
		"custom_term": {"Marble countertop workshop"},
	})

	if svc.lastRequest.Term != "Marble countertop workshop" {
		t.Errorf("custom term not applied, got %q", svc.lastRequest.Term)
	}
}

func TestSearchFormDisabledSearch(t *testing.T) {
	svc := &fakeService{batchErr: serp.ErrNoAPIKey}
	s := testServer(t, svc, config.Status{})

	w := postForm(s, "/search", url.Values{"term": {"anything"}})

	if w.Code != http.StatusOK {
		t.Fatalf("form errors render on the page, got status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "SERPER_API_KEY") {
		t.Error("expected configuration hint in error message")
	}
}

func TestLoadMoreAccumulates(t *testing.T) {
	svc := &fakeService{
		batch: &pipeline.Batch{
			Companies:  []*storage.Company{company("Alpha Woodworks", "")},
			NextOffset: 10,
		},
	}
	s := testServer(t, svc, config.Status{Search: true})

	postForm(s, "/search", url.Values{"term": {"x"}})

	// Second page returns a different company at offset 10.
	svc.batch = &pipeline.Batch{
		Companies:  []*storage.Company{company("Beta Interiors", "")},
		NextOffset: 20,
	}
	w := postForm(s, "/search", url.Values{"term": {"x"}, "offset": {"10"}})

	body := w.Body.String()
	if !strings.Contains(body, "Alpha Woodworks") || !strings.Contains(body, "Beta Interiors") {
		t.Error("expected both pages of results after load more")
	}

	// A fresh search at offset zero starts over.
	svc.batch = &pipeline.Batch{
		Companies:  []*storage.Company{company("Gamma Furniture", "")},
		NextOffset: 10,
	}
	w = postForm(s, "/search", url.Values{"term": {"y"}})

	body = w.Body.String()
	if strings.Contains(body, "Alpha Woodworks") {
		t.Error("fresh search should reset the session")
	}
	if !strings.Contains(body, "Gamma Furniture") {
		t.Error("fresh search results missing")
	}
}

func TestCompanyFormRendersCard(t *testing.T) {
	c := company("Firenze Arredi", "sales@firenzearredi.example.com")
	c.Summary = "Family workshop making custom furniture."
	svc := &fakeService{company: c}
	s := testServer(t, svc, config.Status{Search: true})

	w := postForm(s, "/company", url.Values{"name": {"Firenze Arredi"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Firenze Arredi") || !strings.Contains(body, "Family workshop") {
		t.Error("company card missing fields")
	}
	if svc.lastName != "Firenze Arredi" {
		t.Errorf("unexpected lookup name %q", svc.lastName)
	}
}

func TestAPISearch(t *testing.T) {
	svc := &fakeService{
		batch: &pipeline.Batch{
			Query:      "Custom wood furniture manufacturer in Italy",
			Companies:  []*storage.Company{company("Alpha Woodworks", "info@alpha.example.com")},
			NextOffset: 10,
		},
	}
	s := testServer(t, svc, config.Status{Search: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search",
		strings.NewReader(`{"term":"Custom wood furniture manufacturer","max_results":3}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var batch pipeline.Batch
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("failed to decode batch: %v", err)
	}
	if len(batch.Companies) != 1 || batch.Companies[0].Name != "Alpha Woodworks" {
		t.Errorf("unexpected batch companies: %+v", batch.Companies)
	}
	if batch.NextOffset != 10 {
		t.Errorf("expected next offset 10, got %d", batch.NextOffset)
	}
	if svc.lastRequest.MaxResults != 3 {
		t.Errorf("expected max results 3, got %d", svc.lastRequest.MaxResults)
	}
}

func TestAPISearchErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"disabled", serp.ErrNoAPIKey, http.StatusServiceUnavailable},
		{"empty query", serp.ErrEmptyQuery, http.StatusBadRequest},
		{"upstream", errors.New("serper http 500"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, &fakeService{batchErr: tt.err}, config.Status{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"term":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPICompany(t *testing.T) {
	svc := &fakeService{company: company("Alpha Woodworks", "")}
	s := testServer(t, svc, config.Status{Search: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/company", strings.NewReader(`{"name":"Alpha Woodworks"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got storage.Company
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode company: %v", err)
	}
	if got.Name != "Alpha Woodworks" {
		t.Errorf("unexpected company %+v", got)
	}
}

func TestAPICompanyRequiresName(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/company", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestAPICompanyNotFound(t *testing.T) {
	s := testServer(t, &fakeService{lookupErr: pipeline.ErrNoResults}, config.Status{Search: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/company", strings.NewReader(`{"name":"Nowhere Inc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	svc := &fakeService{
		batch: &pipeline.Batch{
			Companies: []*storage.Company{
				company("Alpha Woodworks", "info@alpha.example.com"),
				company("Beta Interiors", "hello@beta.example.com"),
			},
			NextOffset: 10,
		},
	}
	s := testServer(t, svc, config.Status{Search: true})

	postForm(s, "/search", url.Values{"term": {"x"}})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/export?format=csv", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,name,website") {
		t.Errorf("unexpected csv header %q", lines[0])
	}
	if !strings.Contains(lines[1], "Alpha Woodworks") || !strings.Contains(lines[2], "Beta Interiors") {
		t.Error("csv rows out of order or missing")
	}
}

func TestExportXLSXHeaders(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/export?format=xlsx", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	// XLSX files are zip archives; check the magic bytes made it out.
	if body := w.Body.Bytes(); len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("export body is not a zip archive")
	}
}

func TestExportJSON(t *testing.T) {
	svc := &fakeService{
		batch: &pipeline.Batch{
			Companies:  []*storage.Company{company("Alpha Woodworks", "")},
			NextOffset: 10,
		},
	}
	s := testServer(t, svc, config.Status{Search: true})

	postForm(s, "/search", url.Values{"term": {"x"}})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/export?format=json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got []*storage.Company
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode export: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Alpha Woodworks" {
		t.Errorf("unexpected export contents: %+v", got)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/export?format=pdf", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := testServer(t, &fakeService{}, config.Status{})
	s.addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
