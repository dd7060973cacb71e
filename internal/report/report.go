// Package report renders collected company records as text, JSON or HTML
// summaries for sharing outside the tool.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

// Summary aggregates a set of company records.
type Summary struct {
	TotalCompanies int
	WithEmail      int
	WithPhone      int
	WithLinkedIn   int
	WithSummary    int
	BySource       map[string]int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	Companies      []*storage.Company
}

// GenerateSummary aggregates company records into report metrics.
func GenerateSummary(companies []*storage.Company) Summary {
	s := Summary{
		BySource:  make(map[string]int),
		Companies: companies,
	}

	if len(companies) == 0 {
		return s
	}

	s.StartTime = companies[0].CreatedAt
	s.EndTime = companies[0].CreatedAt

	for _, c := range companies {
		s.TotalCompanies++
		if c.Email != "" {
			s.WithEmail++
		}
		if c.Phone != "" {
			s.WithPhone++
		}
		if c.LinkedIn != "" {
			s.WithLinkedIn++
		}
		if c.Summary != "" {
			s.WithSummary++
		}
		if c.Source != "" {
			s.BySource[c.Source]++
		}

		if c.CreatedAt.Before(s.StartTime) {
			s.StartTime = c.CreatedAt
		}
		if c.CreatedAt.After(s.EndTime) {
			s.EndTime = c.CreatedAt
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary, company records included, in indented JSON.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text report to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Prospect Lead Report
--------------------
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Companies:     {{.TotalCompanies}}
With Email:    {{.WithEmail}}
With Phone:    {{.WithPhone}}
With LinkedIn: {{.WithLinkedIn}}
With Summary:  {{.WithSummary}}

Sources:
{{- range $src, $count := .BySource}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}

Leads:
{{- range .Companies}}
  - {{.Name}} ({{.Website}}){{if .Email}} {{.Email}}{{end}}{{if .Phone}} {{.Phone}}{{end}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse text template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("failed to render text report: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer. Company fields
// come from scraped pages, so rendering goes through html/template escaping.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Prospect Lead Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Prospect Lead Report</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Companies</div>
    <div class="stat-val">{{.TotalCompanies}}</div>
  </div>
  <div class="stat-card">
    <div>With Email</div>
    <div class="stat-val">{{.WithEmail}}</div>
  </div>
  <div class="stat-card">
    <div>With Phone</div>
    <div class="stat-val">{{.WithPhone}}</div>
  </div>
  <div class="stat-card">
    <div>With LinkedIn</div>
    <div class="stat-val">{{.WithLinkedIn}}</div>
  </div>

  <h3>Sources</h3>
  <table>
    <tr><th>Query</th><th>Companies</th></tr>
    {{- range $src, $count := .BySource}}
    <tr><td>{{$src}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Leads</h3>
  <table>
    <tr><th>Name</th><th>Website</th><th>Email</th><th>Phone</th><th>Location</th><th>LinkedIn</th></tr>
    {{- range .Companies}}
    <tr><td>{{.Name}}</td><td>{{.Website}}</td><td>{{.Email}}</td><td>{{.Phone}}</td><td>{{.Location}}</td><td>{{.LinkedIn}}</td></tr>
    {{- else}}
    <tr><td colspan="6">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse html template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}

	return nil
}
