package web

import "html/template"

// pageTemplates parses the embedded UI templates. The two pages share the
// same inline stylesheet so the UI stays a single self-contained binary.
func pageTemplates() *template.Template {
	t := template.Must(template.New("index").Parse(indexTmpl))
	template.Must(t.New("company").Parse(companyTmpl))
	return t
}

const indexTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Prospect</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; max-width: 1100px; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .status { color: #666; }
  .status .on { color: #2e7d32; font-weight: bold; }
  .status .off { color: #c62828; font-weight: bold; }
  .error { background: #fdecea; color: #c62828; padding: 10px; border-radius: 5px; }
  form.search { background: #f4f4f4; padding: 20px; border-radius: 5px; margin: 20px 0; }
  form.search label { display: block; margin: 8px 0; }
  form.search input[type=text], form.search input[type=number], form.search select { padding: 4px; min-width: 280px; }
  button { padding: 6px 16px; }
  table { border-collapse: collapse; margin-top: 10px; width: 100%; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  tr.details td { background: #fafafa; }
  pre { white-space: pre-wrap; }
</style>
</head>
<body>
  <h1>Prospect</h1>
  <p class="status">
    Search: {{if .Status.Search}}<span class="on">enabled</span>{{else}}<span class="off">disabled</span>{{end}} &middot;
    AI summaries: {{if .Status.Summaries}}<span class="on">enabled</span>{{else}}<span class="off">extractive fallback</span>{{end}}
  </p>
  <p><a href="/">Search</a> &middot; <a href="/company">Company lookup</a></p>

  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}

  <form class="search" method="post" action="/search">
    <label>Search term
      <select name="term">
        {{- range .Terms}}
        <option value="{{.}}"{{if eq . $.Form.Term}} selected{{end}}>{{.}}</option>
        {{- end}}
      </select>
    </label>
    <label>Custom term <input type="text" name="custom_term" value="{{.CustomTerm}}" placeholder="overrides the selection"></label>
    <label>Requirements <input type="text" name="requirements" value="{{.Form.Requirements}}" placeholder="e.g. solid oak, export ready"></label>
    <label>Country <input type="text" name="country" value="{{.Form.Country}}"></label>
    <label>Max results <input type="number" name="max_results" min="1" max="50" value="{{.Form.MaxResults}}"></label>
    <label><input type="checkbox" name="enrich" value="1"{{if .Form.Enrich}} checked{{end}}> Generate company profiles</label>
    <button type="submit">Search</button>
  </form>

  {{if .Companies}}
  <h3>Results ({{len .Companies}})</h3>
  <p>
    Export:
    <a href="/api/v1/export?format=csv">CSV</a> &middot;
    <a href="/api/v1/export?format=xlsx">Excel</a> &middot;
    <a href="/api/v1/export?format=json">JSON</a>
  </p>
  <table>
    <tr><th>Name</th><th>Website</th><th>Email</th><th>Phone</th><th>Location</th><th>LinkedIn</th></tr>
    {{- range .Companies}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{if .Website}}<a href="{{.Website}}">{{.Website}}</a>{{end}}</td>
      <td>{{.Email}}</td>
      <td>{{.Phone}}</td>
      <td>{{.Location}}</td>
      <td>{{if .LinkedIn}}<a href="{{.LinkedIn}}">profile</a>{{end}}</td>
    </tr>
    {{- if or .Summary .AllEmails .AllPhones}}
    <tr class="details"><td colspan="6"><details><summary>Details</summary>
      {{- if .Summary}}<pre>{{.Summary}}</pre>{{end}}
      {{- if .AllEmails}}<p>All emails: {{range $i, $e := .AllEmails}}{{if $i}}, {{end}}{{$e}}{{end}}</p>{{end}}
      {{- if .AllPhones}}<p>All phones: {{range $i, $p := .AllPhones}}{{if $i}}, {{end}}{{$p}}{{end}}</p>{{end}}
    </details></td></tr>
    {{- end}}
    {{- end}}
  </table>

  {{if .HasMore}}
  <form method="post" action="/search">
    <input type="hidden" name="term" value="{{.Form.Term}}">
    <input type="hidden" name="requirements" value="{{.Form.Requirements}}">
    <input type="hidden" name="country" value="{{.Form.Country}}">
    <input type="hidden" name="max_results" value="{{.Form.MaxResults}}">
    {{if .Form.Enrich}}<input type="hidden" name="enrich" value="1">{{end}}
    <input type="hidden" name="offset" value="{{.NextOffset}}">
    <button type="submit">Load more</button>
  </form>
  {{end}}
  {{else if .Searched}}
  <p>No companies found. Adjust the query and try again.</p>
  {{end}}
</body>
</html>
`

const companyTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Prospect &middot; Company Lookup</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; max-width: 800px; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .status { color: #666; }
  .status .on { color: #2e7d32; font-weight: bold; }
  .status .off { color: #c62828; font-weight: bold; }
  .error { background: #fdecea; color: #c62828; padding: 10px; border-radius: 5px; }
  form.search { background: #f4f4f4; padding: 20px; border-radius: 5px; margin: 20px 0; }
  form.search input[type=text] { padding: 4px; min-width: 320px; }
  button { padding: 6px 16px; }
  .card { border: 1px solid #ccc; border-radius: 5px; padding: 20px; margin-top: 20px; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  pre { white-space: pre-wrap; }
</style>
</head>
<body>
  <h1>Company Lookup</h1>
  <p class="status">
    Search: {{if .Status.Search}}<span class="on">enabled</span>{{else}}<span class="off">disabled</span>{{end}} &middot;
    AI summaries: {{if .Status.Summaries}}<span class="on">enabled</span>{{else}}<span class="off">extractive fallback</span>{{end}}
  </p>
  <p><a href="/">Search</a> &middot; <a href="/company">Company lookup</a></p>

  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}

  <form class="search" method="post" action="/company">
    <label>Company name <input type="text" name="name" value="{{.Name}}" placeholder="e.g. Firenze Arredi"></label>
    <button type="submit">Look up</button>
  </form>

  {{if .Company}}
  <div class="card">
    <h3>{{.Company.Name}}</h3>
    <table>
      <tr><th>Website</th><td>{{if .Company.Website}}<a href="{{.Company.Website}}">{{.Company.Website}}</a>{{end}}</td></tr>
      <tr><th>LinkedIn</th><td>{{if .Company.LinkedIn}}<a href="{{.Company.LinkedIn}}">{{.Company.LinkedIn}}</a>{{end}}</td></tr>
      <tr><th>Email</th><td>{{.Company.Email}}</td></tr>
      <tr><th>Phone</th><td>{{.Company.Phone}}</td></tr>
      <tr><th>Location</th><td>{{.Company.Location}}</td></tr>
    </table>
    {{if .Company.Summary}}<h4>Profile</h4><pre>{{.Company.Summary}}</pre>{{end}}
  </div>
  {{end}}
</body>
</html>
`
