package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mikey/phishing-url-filter/internal/allowlist"
	"github.com/mikey/phishing-url-filter/internal/config"
	"github.com/mikey/phishing-url-filter/internal/core"
	"github.com/mikey/phishing-url-filter/internal/factory"
	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/logging"
	"github.com/mikey/phishing-url-filter/internal/model"
	"go.uber.org/zap"
)

var (
	// Extraction flags
	withDomain    = flag.Bool("with-domain", false, "Enable WHOIS/DNS lookups")
	lookupTimeout = flag.Duration("lookup-timeout", 3*time.Second, "Timeout per WHOIS/DNS lookup")
	dnsResolver   = flag.String("dns-resolver", "8.8.8.8:53", "DNS resolver address (host:port)")
	contentFile   = flag.String("content", "", "File with pre-fetched page HTML to analyze")

	// Model flags
	primaryPath  = flag.String("primary-model", "", "Path to primary model artifact (built-in if empty)")
	baselinePath = flag.String("baseline-model", "", "Path to baseline model artifact (built-in if empty)")
	topK         = flag.Int("top-k", 5, "Number of contributing features to report")

	// Classification flags
	trustedDomains = flag.String("trusted", "", "Comma-separated list of trusted domains")

	// Input flags
	inputFile  = flag.String("file", "", "File with one URL per line (batch mode)")
	workers    = flag.Int("workers", 4, "Concurrent classifications in batch mode")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Build the ensemble
	modelFactory := factory.NewModelFactory(cfg, logger)
	ensemble, err := modelFactory.CreateEnsemble()
	if err != nil {
		logger.Fatal("Failed to load models", zap.Error(err))
	}

	// Parse trusted domains
	var trusted []string
	if *trustedDomains != "" {
		trusted = strings.Split(*trustedDomains, ",")
		for i, d := range trusted {
			trusted[i] = strings.TrimSpace(d)
		}
	} else {
		trusted = cfg.GetClassifier().TrustedDomains
	}

	ext := cfg.GetExtraction()
	var domainExt *features.DomainExtractor
	if ext.DomainEnabled {
		domainExt = features.NewDomainExtractor(ext.DNSResolver, ext.LookupTimeout, logger)
	}

	svc := core.NewClassifierService(
		domainExt,
		features.NewContentExtractor(logger),
		ensemble,
		nil,   // No cache for CLI
		false, // Cache disabled
		0,     // No TTL
		allowlist.NewChecker(trusted, logger),
		*topK,
		logger,
	)

	if *inputFile != "" {
		runBatch(svc, *inputFile, logger)
		return
	}

	if flag.NArg() < 1 {
		fmt.Println("Usage: phish-check [flags] <url>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	runSingle(svc, flag.Arg(0), logger)
}

func runSingle(svc *core.ClassifierService, rawURL string, logger *zap.Logger) {
	var pageContent string
	if *contentFile != "" {
		data, err := os.ReadFile(*contentFile)
		if err != nil {
			logger.Fatal("Failed to read content file", zap.Error(err), zap.String("file", *contentFile))
		}
		pageContent = string(data)
	}

	startTime := time.Now()
	result, err := svc.Classify(context.Background(), core.Request{
		RawURL:      rawURL,
		WithDomain:  *withDomain,
		PageContent: pageContent,
	})
	if err != nil {
		logger.Fatal("Failed to classify URL", zap.Error(err))
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("URL: %s\n", result.URL)
	fmt.Printf("Classification: %s\n", result.Label)
	fmt.Printf("Risk score: %d/100\n", result.RiskScore)
	fmt.Printf("Probability: %.4f\n", result.Probability)
	fmt.Printf("Model used: %s\n", result.ModelUsed)
	if len(result.SkippedGroups) > 0 {
		fmt.Printf("Skipped groups: %s\n", strings.Join(result.SkippedGroups, ", "))
	}
	if len(result.DegradedLookups) > 0 {
		fmt.Printf("Degraded lookups: %s\n", strings.Join(result.DegradedLookups, ", "))
	}
	if len(result.TopFeatures) > 0 {
		fmt.Printf("Top contributing features:\n")
		for _, f := range result.TopFeatures {
			fmt.Printf("  %-28s value=%-10.4f contribution=%+.4f\n", f.Name, f.Value, f.Contribution)
		}
	}
	fmt.Printf("Processing time: %v\n", time.Since(startTime))
}

func runBatch(svc *core.ClassifierService, path string, logger *zap.Logger) {
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", path))
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal("Failed to read input file", zap.Error(err))
	}

	type batchResult struct {
		url    string
		result *core.ClassificationResult
		err    error
	}

	results := make([]batchResult, len(urls))
	sem := make(chan struct{}, *workers)
	var wg sync.WaitGroup
	startTime := time.Now()

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := svc.Classify(context.Background(), core.Request{
				RawURL:     u,
				WithDomain: *withDomain,
			})
			results[i] = batchResult{url: u, result: res, err: err}
		}(i, u)
	}
	wg.Wait()

	fmt.Printf("\n=== Results ===\n")
	phishing := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("%-60s ERROR: %v\n", r.url, r.err)
			continue
		}
		if r.result.Label == model.LabelPhishing {
			phishing++
		}
		fmt.Printf("%-60s %-10s risk=%d\n", r.url, r.result.Label, r.result.RiskScore)
	}
	fmt.Printf("\nChecked %d URLs (%d phishing) in %v\n", len(urls), phishing, time.Since(startTime))
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("extraction.domain_enabled", *withDomain)
	v.Set("extraction.lookup_timeout", lookupTimeout.String())
	v.Set("extraction.dns_resolver", *dnsResolver)

	v.Set("models.primary_path", *primaryPath)
	v.Set("models.baseline_path", *baselinePath)

	v.Set("classifier.top_k", *topK)
	v.Set("cache.enabled", false)

	return config.NewFromViper(v)
}
