package config

import "time"

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// ClassifierConfig represents the classification defaults
type ClassifierConfig struct {
	TopK           int
	TrustedDomains []string
}

// ExtractionConfig represents the optional-extractor configuration
type ExtractionConfig struct {
	DomainEnabled bool
	LookupTimeout time.Duration
	DNSResolver   string
}

// ModelsConfig points at the trained artifacts. Empty paths select the
// built-in hand-tuned artifacts.
type ModelsConfig struct {
	PrimaryPath  string
	BaselinePath string
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	read, err := c.GetDuration("server.read_timeout")
	if err != nil {
		read = 10 * time.Second
	}
	write, err := c.GetDuration("server.write_timeout")
	if err != nil {
		write = 30 * time.Second
	}
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
		ReadTimeout:   read,
		WriteTimeout:  write,
	}
}

// GetClassifier returns the classification defaults
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		TopK:           c.GetInt("classifier.top_k"),
		TrustedDomains: c.GetStringSlice("classifier.trusted_domains"),
	}
}

// GetExtraction returns the optional-extractor configuration
func (c *Config) GetExtraction() ExtractionConfig {
	timeout, err := c.GetDuration("extraction.lookup_timeout")
	if err != nil {
		timeout = 3 * time.Second
	}
	return ExtractionConfig{
		DomainEnabled: c.GetBool("extraction.domain_enabled"),
		LookupTimeout: timeout,
		DNSResolver:   c.GetString("extraction.dns_resolver"),
	}
}

// GetModels returns the model artifact configuration
func (c *Config) GetModels() ModelsConfig {
	return ModelsConfig{
		PrimaryPath:  c.GetString("models.primary_path"),
		BaselinePath: c.GetString("models.baseline_path"),
	}
}
