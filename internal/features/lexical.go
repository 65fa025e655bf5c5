package features

import (
	"math"
	"net"
	"strings"

	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

// Immutable keyword tables, initialized once at process start and never
// mutated afterwards. Shared by reference across concurrent requests.
var suspiciousKeywords = []string{
	"login", "signin", "verify", "update", "secure", "account",
	"banking", "paypal", "amazon", "apple", "microsoft", "confirm",
	"suspend", "restore", "password", "credential", "urgent", "click",
}

var shortenerDomains = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd",
	"buff.ly", "adf.ly", "bit.do", "lnkd.in", "db.tt", "qr.ae",
}

const (
	urlLengthCap    = 500
	specialCharSet  = "-@%_"
	entropyRounding = 1e4
)

// LexicalFeatures are derived from the URL string alone. Extraction is a
// pure function of the ValidatedURL: no I/O, no failure mode.
type LexicalFeatures struct {
	URLLength       float64
	NumDots         float64
	NumSubdomains   float64
	UsesHTTPS       float64
	HasKeyword      float64
	KeywordCount    float64
	IsShortener     float64
	HasIPHost       float64
	NumSpecialChars float64
	DigitRatio      float64
	Entropy         float64
}

// ExtractLexical computes all lexical features for a validated URL.
func ExtractLexical(u urlcheck.ValidatedURL) LexicalFeatures {
	full := u.Full
	lower := strings.ToLower(full)

	kwCount := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			kwCount++
		}
	}

	shortener := 0.0
	for _, d := range shortenerDomains {
		if u.Host == d || strings.HasSuffix(u.Host, "."+d) {
			shortener = 1
			break
		}
	}

	special := 0
	digits := 0
	for _, c := range full {
		if strings.ContainsRune(specialCharSet, c) {
			special++
		}
		if c >= '0' && c <= '9' {
			digits++
		}
	}

	labels := 0
	if u.Host != "" {
		labels = strings.Count(u.Host, ".") + 1
	}

	lf := LexicalFeatures{
		URLLength:       float64(min(len(full), urlLengthCap)),
		NumDots:         float64(strings.Count(full, ".")),
		NumSubdomains:   float64(max(labels-2, 0)),
		KeywordCount:    float64(kwCount),
		IsShortener:     shortener,
		NumSpecialChars: float64(special),
		DigitRatio:      round4(float64(digits) / float64(max(len(full), 1))),
		Entropy:         Entropy(full),
	}
	if u.Scheme == "https" {
		lf.UsesHTTPS = 1
	}
	if kwCount > 0 {
		lf.HasKeyword = 1
	}
	if net.ParseIP(u.Host) != nil {
		lf.HasIPHost = 1
	}
	return lf
}

// values returns the features in schema order for the lexical group.
func (lf LexicalFeatures) values() []float64 {
	return []float64{
		lf.URLLength, lf.NumDots, lf.NumSubdomains, lf.UsesHTTPS,
		lf.HasKeyword, lf.KeywordCount, lf.IsShortener, lf.HasIPHost,
		lf.NumSpecialChars, lf.DigitRatio, lf.Entropy,
	}
}

// Entropy returns the Shannon entropy of s. The definition is fixed for
// reproducibility: log base 2 over byte frequencies, rounded to 4 decimal
// places. Empty and single-byte strings have entropy 0.
func Entropy(s string) float64 {
	if len(s) < 2 {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return round4(h)
}

func round4(v float64) float64 {
	return math.Round(v*entropyRounding) / entropyRounding
}
