package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())

	if got := cfg.GetString("cache.type"); got != "memory" {
		t.Fatalf("cache.type default = %s, want memory", got)
	}
	if got := cfg.GetClassifier().TopK; got != 5 {
		t.Fatalf("classifier.top_k default = %d, want 5", got)
	}
	if got := cfg.GetModels(); got.PrimaryPath != "" || got.BaselinePath != "" {
		t.Fatalf("model paths default to built-ins, got %+v", got)
	}

	ext := cfg.GetExtraction()
	if !ext.DomainEnabled {
		t.Fatal("extraction.domain_enabled default = false, want true")
	}
	if ext.LookupTimeout != 3*time.Second {
		t.Fatalf("extraction.lookup_timeout default = %v, want 3s", ext.LookupTimeout)
	}

	srv := cfg.GetServer()
	if srv.ListenAddress != "0.0.0.0:8080" {
		t.Fatalf("server.listen_address default = %s", srv.ListenAddress)
	}
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	v := NewEmptyViper()
	v.Set("classifier.top_k", 10)
	v.Set("cache.ttl", "30m")
	v.Set("models.primary_path", "/var/lib/phish/primary.json")
	cfg := NewFromViper(v)

	if got := cfg.GetClassifier().TopK; got != 10 {
		t.Fatalf("classifier.top_k = %d, want 10", got)
	}
	if got := cfg.GetModels().PrimaryPath; got != "/var/lib/phish/primary.json" {
		t.Fatalf("models.primary_path = %s", got)
	}
	ttl, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		t.Fatalf("GetDuration returned error: %v", err)
	}
	if ttl != 30*time.Minute {
		t.Fatalf("cache.ttl = %v, want 30m", ttl)
	}
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	t.Parallel()

	v := NewEmptyViper()
	v.Set("cache.ttl", "soon")
	if _, err := NewFromViper(v).GetDuration("cache.ttl"); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}
