package urlcheck

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"
)

// ErrInvalidInput is returned when a raw URL cannot be validated. It is the
// only validator error surfaced to callers; everything downstream of the
// validator may assume a well-formed URL.
var ErrInvalidInput = errors.New("invalid input URL")

// MaxURLLength bounds raw input size before any parsing happens.
const MaxURLLength = 2048

// ValidatedURL is a normalized URL with its parts split out once. It is
// immutable for the lifetime of a classification request.
type ValidatedURL struct {
	// Full is the normalized URL string (scheme added if missing, host
	// lowercased, surrounding whitespace stripped).
	Full   string
	Scheme string
	Host   string
	Path   string
	Query  string

	// PrivateHost marks loopback/private/internal hosts. Extraction still
	// runs on these, but no outbound lookups or fetches may be issued.
	PrivateHost bool
}

var privateHostPrefixes = []string{
	"localhost", "127.", "10.", "192.168.", "0.", "::1",
}

// Validate normalizes and sanitizes a raw URL. It rejects empty input, input
// over MaxURLLength, control characters, non-http(s) schemes, and strings
// that do not parse into scheme+host. It never issues network traffic.
func Validate(raw string) (ValidatedURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ValidatedURL{}, fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}
	if len(trimmed) > MaxURLLength {
		return ValidatedURL{}, fmt.Errorf("%w: URL exceeds %d bytes", ErrInvalidInput, MaxURLLength)
	}
	for _, r := range trimmed {
		if r < 0x20 || r == 0x7f {
			return ValidatedURL{}, fmt.Errorf("%w: control character in URL", ErrInvalidInput)
		}
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := neturl.Parse(trimmed)
	if err != nil {
		return ValidatedURL{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ValidatedURL{}, fmt.Errorf("%w: scheme %q not allowed", ErrInvalidInput, scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ValidatedURL{}, fmt.Errorf("%w: missing hostname", ErrInvalidInput)
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)

	return ValidatedURL{
		Full:        parsed.String(),
		Scheme:      scheme,
		Host:        host,
		Path:        parsed.Path,
		Query:       parsed.RawQuery,
		PrivateHost: isPrivateHost(host),
	}, nil
}

// isPrivateHost reports whether the host points at loopback, link-local or
// RFC 1918 space. Hostnames are matched by prefix; IPs are parsed properly.
func isPrivateHost(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}
	for _, p := range privateHostPrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}
	if strings.HasPrefix(host, "172.") {
		// 172.16.0.0/12 only
		rest := strings.TrimPrefix(host, "172.")
		if i := strings.IndexByte(rest, '.'); i > 0 {
			switch rest[:i] {
			case "16", "17", "18", "19", "20", "21", "22", "23", "24", "25",
				"26", "27", "28", "29", "30", "31":
				return true
			}
		}
	}
	return false
}
