package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/allowlist"
	"github.com/mikey/phishing-url-filter/internal/core"
	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	ensemble, err := model.NewEnsemble(model.BuiltinForest(), model.BuiltinLinear(), logger)
	if err != nil {
		t.Fatalf("NewEnsemble returned error: %v", err)
	}
	svc := core.NewClassifierService(
		nil,
		features.NewContentExtractor(logger),
		ensemble,
		nil,
		false,
		0,
		allowlist.NewChecker(nil, logger),
		5,
		logger,
	)
	return NewServer(svc, "127.0.0.1:0", 5*time.Second, 5*time.Second, logger)
}

func TestClassifyEndpointPost(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	body := `{"url":"http://paypa1-secure-login.tk/verify"}`
	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result core.ClassificationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.Label != model.LabelPhishing {
		t.Fatalf("classification = %s, want Phishing", result.Label)
	}
	if result.RiskScore < 50 {
		t.Fatalf("risk score = %d, want >= 50", result.RiskScore)
	}
	if len(result.TopFeatures) == 0 {
		t.Fatal("expected contributing features in the response")
	}
}

func TestClassifyEndpointGet(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/classify?url=https%3A%2F%2Fwww.wikipedia.org", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var result core.ClassificationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.Label != model.LabelLegitimate {
		t.Fatalf("classification = %s, want Legitimate", result.Label)
	}
}

func TestClassifyEndpointRejectsBadInput(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty url", `{"url":""}`},
		{"bad scheme", `{"url":"ftp://example.com/x"}`},
		{"broken json", `{"url":`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var er errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
				t.Fatalf("invalid JSON error body: %v", err)
			}
			if er.Error == "" {
				t.Fatal("error body missing message")
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

func TestIndexPage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<form") {
		t.Fatal("index page missing form")
	}

	form := strings.NewReader("url=http%3A%2F%2Fpaypa1-secure-login.tk%2Fverify")
	req = httptest.NewRequest(http.MethodPost, "/", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Phishing") {
		t.Fatal("result page missing verdict")
	}
}
