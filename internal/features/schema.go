package features

import "errors"

// ErrSchemaMismatch signals version skew between an extractor or a model
// artifact and the fixed feature schema. It always aborts the request;
// silently truncating or padding a vector would misclassify.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Group tags which extractor produces a feature.
type Group int

const (
	GroupLexical Group = iota
	GroupDomain
	GroupContent
)

func (g Group) String() string {
	switch g {
	case GroupLexical:
		return "lexical"
	case GroupDomain:
		return "domain"
	case GroupContent:
		return "content"
	default:
		return "unknown"
	}
}

// Spec describes one feature slot: its name, the group that fills it, and
// the sentinel substituted when the group is skipped or a lookup fails.
type Spec struct {
	Name     string
	Group    Group
	Sentinel float64
}

// schema is the single fixed ordered feature table. Name order here is the
// order models are trained on and scored with; it is never recomputed and
// never reordered. Append-only across versions.
var schema = []Spec{
	{"url_length", GroupLexical, 0},
	{"num_dots", GroupLexical, 0},
	{"num_subdomains", GroupLexical, 0},
	{"uses_https", GroupLexical, 0},
	{"has_suspicious_keyword", GroupLexical, 0},
	{"suspicious_keyword_count", GroupLexical, 0},
	{"is_url_shortener", GroupLexical, 0},
	{"has_ip_host", GroupLexical, 0},
	{"num_special_chars", GroupLexical, 0},
	{"digit_ratio", GroupLexical, 0},
	{"url_entropy", GroupLexical, 0},

	{"domain_age_days", GroupDomain, -1},
	{"domain_very_new", GroupDomain, -1},
	{"dns_has_record", GroupDomain, -1},
	{"dns_has_spf", GroupDomain, -1},
	{"dns_has_dmarc", GroupDomain, -1},
	{"abnormal_host_pattern", GroupDomain, 0},

	{"has_form", GroupContent, 0},
	{"has_password_input", GroupContent, 0},
	{"form_action_mismatch", GroupContent, 0},
	{"has_iframe", GroupContent, 0},
	{"has_js_redirect", GroupContent, 0},
	{"urgency_score", GroupContent, 0},
}

// Vector is an ordered feature vector matching the schema. Index i holds the
// value for Names()[i].
type Vector []float64

// Len returns the schema length.
func Len() int { return len(schema) }

// Names returns the ordered feature names as a fresh slice.
func Names() []string {
	names := make([]string, len(schema))
	for i, s := range schema {
		names[i] = s.Name
	}
	return names
}

// GroupOf returns the group owning schema index i.
func GroupOf(i int) Group { return schema[i].Group }

// groupCount returns how many features belong to g, in schema order.
func groupCount(g Group) int {
	n := 0
	for _, s := range schema {
		if s.Group == g {
			n++
		}
	}
	return n
}

// groupSentinels returns the sentinel values for g, in schema order.
func groupSentinels(g Group) []float64 {
	out := make([]float64, 0, groupCount(g))
	for _, s := range schema {
		if s.Group == g {
			out = append(out, s.Sentinel)
		}
	}
	return out
}
