package features

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/miekg/dns"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

// veryNewDomainDays marks registrations younger than this as "very new",
// a strong phishing signal.
const veryNewDomainDays = 30

// DomainFeatures require registry/DNS lookups, except AbnormalPattern which
// is computed locally from the host string.
type DomainFeatures struct {
	AgeDays         float64
	VeryNew         float64
	DNSHasRecord    float64
	DNSHasSPF       float64
	DNSHasDMARC     float64
	AbnormalPattern float64
}

// DomainResult is an explicit present-or-skipped variant for the domain
// group, so sentinel substitution is a deliberate decision point rather than
// a nil check.
type DomainResult struct {
	Skipped  bool
	Features DomainFeatures
	// Degraded lists lookups that failed or timed out and fell back to
	// their sentinels. Recorded as metadata; never an error.
	Degraded []string
}

// DomainExtractor issues WHOIS and DNS lookups for a host. Every lookup
// carries a hard timeout; any failure degrades to the feature's sentinel so
// one slow registry can never stall the pipeline.
type DomainExtractor struct {
	whoisClient   *whois.Client
	dnsClient     *dns.Client
	resolverAddr  string
	lookupTimeout time.Duration
	logger        *zap.Logger
}

// NewDomainExtractor creates a domain extractor with the given resolver
// address (host:port) and per-lookup timeout.
func NewDomainExtractor(resolverAddr string, lookupTimeout time.Duration, logger *zap.Logger) *DomainExtractor {
	if resolverAddr == "" {
		resolverAddr = "8.8.8.8:53"
	}
	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}
	return &DomainExtractor{
		whoisClient:   whois.NewClient(),
		dnsClient:     &dns.Client{},
		resolverAddr:  resolverAddr,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// Extract computes domain features for u. It never returns an error:
// unavailable signals degrade to sentinels and are listed in Degraded.
// Private hosts get no outbound lookups at all.
func (e *DomainExtractor) Extract(ctx context.Context, u urlcheck.ValidatedURL) DomainResult {
	sent := groupSentinels(GroupDomain)
	res := DomainResult{
		Features: DomainFeatures{
			AgeDays:         sent[0],
			VeryNew:         sent[1],
			DNSHasRecord:    sent[2],
			DNSHasSPF:       sent[3],
			DNSHasDMARC:     sent[4],
			AbnormalPattern: abnormalHostPattern(u.Host),
		},
	}

	if u.PrivateHost {
		res.Degraded = append(res.Degraded, "whois:private_host", "dns:private_host")
		return res
	}

	if age, ok := e.domainAgeDays(ctx, u.Host); ok {
		res.Features.AgeDays = age
		if age < veryNewDomainDays {
			res.Features.VeryNew = 1
		} else {
			res.Features.VeryNew = 0
		}
	} else {
		res.Degraded = append(res.Degraded, "whois:unavailable")
	}

	if rec, spf, dmarc, ok := e.dnsRecords(ctx, u.Host); ok {
		res.Features.DNSHasRecord = rec
		res.Features.DNSHasSPF = spf
		res.Features.DNSHasDMARC = dmarc
	} else {
		res.Degraded = append(res.Degraded, "dns:unavailable")
	}

	return res
}

// OfflineDomainFeatures computes the domain group without any network
// lookups: sentinels for every lookup feature plus the locally computable
// abnormal pattern. Used for bulk feature building over datasets.
func OfflineDomainFeatures(host string) DomainResult {
	sent := groupSentinels(GroupDomain)
	return DomainResult{
		Features: DomainFeatures{
			AgeDays:         sent[0],
			VeryNew:         sent[1],
			DNSHasRecord:    sent[2],
			DNSHasSPF:       sent[3],
			DNSHasDMARC:     sent[4],
			AbnormalPattern: abnormalHostPattern(host),
		},
	}
}

// domainAgeDays looks up the WHOIS creation date for the host's apex domain
// and converts it to an age in days.
func (e *DomainExtractor) domainAgeDays(ctx context.Context, host string) (age float64, ok bool) {
	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		e.logger.Debug("No apex domain for host", zap.String("host", host), zap.Error(err))
		return 0, false
	}

	// whois-parser has been seen to panic on exotic registry output.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Recovered from whois parser panic",
				zap.String("domain", apex), zap.Any("panic", r))
			age, ok = 0, false
		}
	}()

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	type whoisReply struct {
		raw string
		err error
	}
	ch := make(chan whoisReply, 1)
	go func() {
		raw, err := e.whoisClient.Whois(apex)
		ch <- whoisReply{raw: raw, err: err}
	}()

	select {
	case <-lookupCtx.Done():
		e.logger.Debug("WHOIS lookup timed out", zap.String("domain", apex))
		return 0, false
	case reply := <-ch:
		if reply.err != nil {
			e.logger.Debug("WHOIS lookup failed", zap.String("domain", apex), zap.Error(reply.err))
			return 0, false
		}
		parsed, err := whoisparser.Parse(reply.raw)
		if err != nil {
			e.logger.Debug("WHOIS parse failed", zap.String("domain", apex), zap.Error(err))
			return 0, false
		}
		if parsed.Domain == nil || parsed.Domain.CreatedDateInTime == nil {
			return 0, false
		}
		days := time.Since(*parsed.Domain.CreatedDateInTime).Hours() / 24
		if days < 0 {
			days = 0
		}
		return math.Floor(days), true
	}
}

// dnsRecords checks A-record presence for the host, SPF in the apex domain's
// TXT records and the DMARC policy published at _dmarc.<apex>. Any query the
// resolver cannot answer reports ok=false so the caller falls back to
// sentinels instead of mistaking a resolver failure for absent records.
func (e *DomainExtractor) dnsRecords(ctx context.Context, host string) (record, spf, dmarc float64, ok bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		apex = host
	}

	answers, ok := e.query(lookupCtx, host, dns.TypeA)
	if !ok {
		return 0, 0, 0, false
	}
	if len(answers) > 0 {
		record = 1
	}

	apexTXT, ok := e.queryTXT(lookupCtx, apex)
	if !ok {
		return 0, 0, 0, false
	}
	for _, s := range apexTXT {
		if strings.HasPrefix(s, "v=spf1") {
			spf = 1
		}
	}

	dmarcTXT, ok := e.queryTXT(lookupCtx, "_dmarc."+apex)
	if !ok {
		return 0, 0, 0, false
	}
	for _, s := range dmarcTXT {
		if strings.HasPrefix(s, "v=DMARC1") {
			dmarc = 1
		}
	}

	return record, spf, dmarc, true
}

// query sends a single question to the configured resolver. ok is false on
// transport errors and on any rcode other than NOERROR or NXDOMAIN; those two
// are real answers (records present or genuinely absent), everything else
// means the resolver could not tell.
func (e *DomainExtractor) query(ctx context.Context, name string, qtype uint16) ([]dns.RR, bool) {
	var m dns.Msg
	m.SetQuestion(dns.Fqdn(name), qtype)
	in, _, err := e.dnsClient.ExchangeContext(ctx, &m, e.resolverAddr)
	if err != nil {
		e.logger.Debug("DNS query failed",
			zap.String("name", name), zap.Uint16("type", qtype), zap.Error(err))
		return nil, false
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
		return in.Answer, true
	case dns.RcodeNameError:
		return nil, true
	default:
		e.logger.Debug("DNS query returned error rcode",
			zap.String("name", name), zap.String("rcode", dns.RcodeToString[in.Rcode]))
		return nil, false
	}
}

// queryTXT returns each TXT answer for name with its character strings
// joined, so policies split across strings still match their prefix.
func (e *DomainExtractor) queryTXT(ctx context.Context, name string) ([]string, bool) {
	answers, ok := e.query(ctx, name, dns.TypeTXT)
	if !ok {
		return nil, false
	}
	var out []string
	for _, a := range answers {
		if t, isTXT := a.(*dns.TXT); isTXT {
			out = append(out, strings.Join(t.Txt, ""))
		}
	}
	return out, true
}

// abnormalHostPattern flags hosts that look engineered: very long, label
// heavy, digit heavy, hyphen heavy, or mixing Latin with another script
// after IDNA decoding (homoglyph trick). Binary 0/1, computed locally.
func abnormalHostPattern(host string) float64 {
	if host == "" {
		return 0
	}
	if len(host) > 40 || strings.Count(host, ".") > 2 || strings.Count(host, "-") >= 2 {
		return 1
	}
	digits := 0
	for _, c := range host {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if digits > 3 {
		return 1
	}
	if mixedScriptHost(host) {
		return 1
	}
	return 0
}

func mixedScriptHost(host string) bool {
	decoded, err := idna.ToUnicode(host)
	if err != nil {
		return false
	}
	hasLatin, hasOther := false, false
	for _, r := range decoded {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.In(r, unicode.Latin) {
			hasLatin = true
		} else {
			hasOther = true
		}
	}
	return hasLatin && hasOther
}

// values returns the features in schema order for the domain group.
func (df DomainFeatures) values() []float64 {
	return []float64{
		df.AgeDays, df.VeryNew, df.DNSHasRecord, df.DNSHasSPF,
		df.DNSHasDMARC, df.AbnormalPattern,
	}
}
