package features

import (
	neturl "net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

// urgencyPatterns match pressure language typical of credential-phishing
// pages. Applied to the page's visible text, case-insensitive.
var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(urgent|immediately|asap|verify\s+now|confirm\s+now|act\s+now)\b`),
	regexp.MustCompile(`(?i)\b(suspend|suspended|restore\s+account|locked\s+account)\b`),
	regexp.MustCompile(`(?i)\b(warning|attention\s+required|action\s+required)\b`),
	regexp.MustCompile(`(?i)\b(click\s+here|verify\s+your\s+identity|confirm\s+your\s+identity)\b`),
}

var jsRedirectPattern = regexp.MustCompile(`window\.location\s*=|location\.href\s*=|location\.replace\s*\(`)

const maxUrgencyScore = 5

// ContentFeatures are derived from fetched page HTML.
type ContentFeatures struct {
	HasForm            float64
	HasPasswordInput   float64
	FormActionMismatch float64
	HasIframe          float64
	HasJSRedirect      float64
	UrgencyScore       float64
}

// ContentResult is the explicit present-or-skipped variant for the content
// group.
type ContentResult struct {
	Skipped  bool
	Features ContentFeatures
	Degraded []string
}

// ContentExtractor parses supplied page HTML. It never fetches anything
// itself; callers that already hold page content pass it in.
type ContentExtractor struct {
	logger *zap.Logger
}

// NewContentExtractor creates a content extractor.
func NewContentExtractor(logger *zap.Logger) *ContentExtractor {
	return &ContentExtractor{logger: logger}
}

// Extract computes content features from html for the page at u. Malformed
// content degrades per-feature to sentinels; it never aborts classification.
func (e *ContentExtractor) Extract(u urlcheck.ValidatedURL, html string) ContentResult {
	var res ContentResult
	if strings.TrimSpace(html) == "" {
		res.Skipped = true
		return res
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Debug("Failed to parse page content", zap.String("url", u.Full), zap.Error(err))
		res.Degraded = append(res.Degraded, "content:unparsable")
		return res
	}

	cf := &res.Features

	forms := doc.Find("form")
	if forms.Length() > 0 {
		cf.HasForm = 1
	}
	forms.Each(func(_ int, form *goquery.Selection) {
		action, ok := form.Attr("action")
		if !ok {
			return
		}
		if formActionMismatch(u.Host, action) {
			cf.FormActionMismatch = 1
		}
	})

	if doc.Find(`input[type="password"]`).Length() > 0 {
		cf.HasPasswordInput = 1
	}
	if doc.Find("iframe").Length() > 0 {
		cf.HasIframe = 1
	}

	scripts := doc.Find("script").Text()
	if jsRedirectPattern.MatchString(scripts) {
		cf.HasJSRedirect = 1
	}
	if meta, ok := doc.Find(`meta[http-equiv]`).Attr("http-equiv"); ok && strings.EqualFold(meta, "refresh") {
		cf.HasJSRedirect = 1
	}

	visible := doc.Find("body").Text()
	if visible == "" {
		visible = doc.Text()
	}
	score := 0
	for _, pat := range urgencyPatterns {
		if pat.MatchString(visible) {
			score++
		}
	}
	cf.UrgencyScore = float64(min(score, maxUrgencyScore))

	return res
}

// formActionMismatch reports whether a form posts to a different host than
// the page it sits on. Relative and fragment actions are same-host.
func formActionMismatch(pageHost, action string) bool {
	action = strings.TrimSpace(action)
	if action == "" || strings.HasPrefix(action, "#") || strings.HasPrefix(action, "javascript:") {
		return false
	}
	if strings.HasPrefix(action, "//") {
		action = "https:" + action
	}
	parsed, err := neturl.Parse(action)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	return !strings.EqualFold(parsed.Hostname(), pageHost)
}

// values returns the features in schema order for the content group.
func (cf ContentFeatures) values() []float64 {
	return []float64{
		cf.HasForm, cf.HasPasswordInput, cf.FormActionMismatch,
		cf.HasIframe, cf.HasJSRedirect, cf.UrgencyScore,
	}
}
