package allowlist

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// Checker holds the configured trusted domains. A URL whose apex domain is
// trusted bypasses classification entirely.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker normalizes the configured domain list once at startup.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted-domain allowlist", zap.Strings("domains", normalized))
	}

	return &Checker{domains: normalized, logger: logger}
}

// IsTrusted reports whether the host's apex domain (eTLD+1) is on the
// allowlist. Exact host matches count as well, so entries like
// "accounts.example.com" work without covering the whole apex.
func (c *Checker) IsTrusted(host string) bool {
	if len(c.domains) == 0 {
		return false
	}
	host = strings.ToLower(host)

	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		apex = host
	}

	for _, d := range c.domains {
		if d == host || d == apex {
			if c.logger != nil {
				c.logger.Debug("Host is on the trusted allowlist",
					zap.String("host", host), zap.String("matched", d))
			}
			return true
		}
	}
	return false
}
