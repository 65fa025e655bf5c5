package httpapi

import (
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/core"
	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Phishing URL Filter</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; padding: 0 1em; }
input[type=text] { width: 100%; padding: 0.5em; }
.phishing { color: #b00020; font-weight: bold; }
.legitimate { color: #1b7a2a; font-weight: bold; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.6em; text-align: left; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Phishing URL Filter</h1>
<form method="post" action="/">
<p><input type="text" name="url" placeholder="https://example.com/login" value="{{.Input}}"></p>
<p><label><input type="checkbox" name="with_domain" value="true" {{if .WithDomain}}checked{{end}}> Include WHOIS/DNS lookups</label></p>
<p><button type="submit">Check URL</button></p>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Result}}
<h2>Result</h2>
<p>Verdict: <span class="{{if eq .Result.Label "Phishing"}}phishing{{else}}legitimate{{end}}">{{.Result.Label}}</span></p>
<p>Risk score: {{.Result.RiskScore}} / 100</p>
<p>Model: {{.Result.ModelUsed}}</p>
{{if .Result.TopFeatures}}
<table>
<tr><th>Feature</th><th>Value</th><th>Contribution</th></tr>
{{range .Result.TopFeatures}}
<tr><td>{{.Name}}</td><td>{{printf "%.4f" .Value}}</td><td>{{printf "%.4f" .Contribution}}</td></tr>
{{end}}
</table>
{{end}}
{{if .Result.SkippedGroups}}<p>Skipped groups: {{range .Result.SkippedGroups}}{{.}} {{end}}</p>{{end}}
{{end}}
</body>
</html>
`))

type indexData struct {
	Input      string
	WithDomain bool
	Error      string
	Result     *core.ClassificationResult
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		data.Input = r.PostFormValue("url")
		data.WithDomain = r.PostFormValue("with_domain") == "true"

		result, err := s.svc.Classify(r.Context(), core.Request{
			RawURL:     data.Input,
			WithDomain: data.WithDomain,
		})
		switch {
		case err == nil:
			data.Result = result
		case errors.Is(err, urlcheck.ErrInvalidInput):
			data.Error = err.Error()
		default:
			s.logger.Error("Classification failed", zap.Error(err))
			data.Error = "internal error"
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.logger.Error("Failed to render index page", zap.Error(err))
	}
}
