package features

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

func mustValidate(t *testing.T, raw string) urlcheck.ValidatedURL {
	t.Helper()
	u, err := urlcheck.Validate(raw)
	if err != nil {
		t.Fatalf("Validate(%q) returned error: %v", raw, err)
	}
	return u
}

func TestExtractLexicalPhishyURL(t *testing.T) {
	t.Parallel()

	lf := ExtractLexical(mustValidate(t, "http://paypa1-secure-login.tk/verify"))

	if lf.UsesHTTPS != 0 {
		t.Fatalf("UsesHTTPS = %v, want 0 for http", lf.UsesHTTPS)
	}
	// "secure", "login" and "verify" all appear in the URL.
	if lf.KeywordCount != 3 {
		t.Fatalf("KeywordCount = %v, want 3", lf.KeywordCount)
	}
	if lf.HasKeyword != 1 {
		t.Fatalf("HasKeyword = %v, want 1", lf.HasKeyword)
	}
	if lf.NumSpecialChars != 2 {
		t.Fatalf("NumSpecialChars = %v, want 2 hyphens", lf.NumSpecialChars)
	}
	if lf.Entropy != 4.3638 {
		t.Fatalf("Entropy = %v, want 4.3638", lf.Entropy)
	}
}

func TestExtractLexicalBenignURL(t *testing.T) {
	t.Parallel()

	lf := ExtractLexical(mustValidate(t, "https://www.wikipedia.org"))

	if lf.UsesHTTPS != 1 {
		t.Fatalf("UsesHTTPS = %v, want 1", lf.UsesHTTPS)
	}
	if lf.HasKeyword != 0 || lf.KeywordCount != 0 {
		t.Fatalf("unexpected keyword hit: has=%v count=%v", lf.HasKeyword, lf.KeywordCount)
	}
	if lf.NumSubdomains != 1 {
		t.Fatalf("NumSubdomains = %v, want 1 for www", lf.NumSubdomains)
	}
	if lf.Entropy != 3.8137 {
		t.Fatalf("Entropy = %v, want 3.8137", lf.Entropy)
	}
}

func TestExtractLexicalShortenerAndIP(t *testing.T) {
	t.Parallel()

	if lf := ExtractLexical(mustValidate(t, "https://bit.ly/abc123")); lf.IsShortener != 1 {
		t.Fatalf("IsShortener = %v, want 1 for bit.ly", lf.IsShortener)
	}
	if lf := ExtractLexical(mustValidate(t, "https://www.bit.ly/abc")); lf.IsShortener != 1 {
		t.Fatalf("IsShortener = %v, want 1 for subdomain of bit.ly", lf.IsShortener)
	}
	if lf := ExtractLexical(mustValidate(t, "https://notbit.ly.example.com/")); lf.IsShortener != 0 {
		t.Fatalf("IsShortener = %v, want 0 for lookalike host", lf.IsShortener)
	}
	if lf := ExtractLexical(mustValidate(t, "http://192.0.2.45/login")); lf.HasIPHost != 1 {
		t.Fatalf("HasIPHost = %v, want 1", lf.HasIPHost)
	}
}

func TestExtractLexicalLengthCap(t *testing.T) {
	t.Parallel()

	long := "https://example.com/" + strings.Repeat("a", 900)
	lf := ExtractLexical(mustValidate(t, long))
	if lf.URLLength != 500 {
		t.Fatalf("URLLength = %v, want capped at 500", lf.URLLength)
	}
}

func TestExtractLexicalDeterministic(t *testing.T) {
	t.Parallel()

	u := mustValidate(t, "http://paypa1-secure-login.tk/verify?q=1")
	first := ExtractLexical(u)
	for i := 0; i < 100; i++ {
		if got := ExtractLexical(u); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced different features: %+v vs %+v", i, got, first)
		}
	}
}

func TestEntropyProperties(t *testing.T) {
	t.Parallel()

	if got := Entropy(""); got != 0 {
		t.Fatalf("Entropy(\"\") = %v, want 0", got)
	}
	if got := Entropy("x"); got != 0 {
		t.Fatalf("Entropy single byte = %v, want 0", got)
	}
	if got := Entropy("aaaaaaaa"); got != 0 {
		t.Fatalf("Entropy repeated byte = %v, want 0", got)
	}

	// Uniform distribution reaches exactly log2(alphabet size).
	if got := Entropy("abcd"); got != 2 {
		t.Fatalf("Entropy uniform 4 symbols = %v, want 2", got)
	}

	samples := []string{"hello", "https://example.com", "a1b2c3d4", "zzzzy"}
	for _, s := range samples {
		h := Entropy(s)
		if h < 0 {
			t.Fatalf("Entropy(%q) = %v, want non-negative", s, h)
		}
		if limit := math.Log2(256); h > limit {
			t.Fatalf("Entropy(%q) = %v exceeds byte limit %v", s, h, limit)
		}
	}
}

func TestDigitRatio(t *testing.T) {
	t.Parallel()

	u := mustValidate(t, "http://99.example.com/11")
	lf := ExtractLexical(u)
	// 4 digits out of len("http://99.example.com/11") = 24 bytes.
	if want := 0.1667; lf.DigitRatio != want {
		t.Fatalf("DigitRatio = %v, want %v", lf.DigitRatio, want)
	}
}
