// Package config loads service configuration from an optional YAML file
// with environment-variable overrides on top of sane defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config carries every tunable of the lookup engine and the service
// around it.
type Config struct {
	Lookup struct {
		WhoisTimeoutSeconds     int `yaml:"whoisTimeoutSeconds"`
		DiscoveryTimeoutSeconds int `yaml:"discoveryTimeoutSeconds"`
		LookupTimeoutSeconds    int `yaml:"lookupTimeoutSeconds"`
		MaxResponseSize         int `yaml:"maxResponseSize"`
		MaxReferrals            int `yaml:"maxReferrals"`
		ConcurrentWhoisQueries  int `yaml:"concurrentWhoisQueries"`
		DiscoveryConcurrency    int `yaml:"discoveryConcurrency"`
	} `yaml:"lookup"`
	Cache struct {
		TTLSeconds int `yaml:"ttlSeconds"`
		MaxEntries int `yaml:"maxEntries"`
	} `yaml:"cache"`
	Buffers struct {
		PoolSize int `yaml:"poolSize"`
		Size     int `yaml:"size"`
	} `yaml:"buffers"`
	Server struct {
		Addr      string        `yaml:"addr"`
		RateLimit int           `yaml:"rateLimit"`
		RateReset time.Duration `yaml:"rateReset"`
	} `yaml:"server"`
	Database struct {
		FilePath  string `yaml:"filepath"`
		BatchSize int    `yaml:"batchSize"`
	} `yaml:"database"`
}

// Default returns the configuration used when no file or environment
// override says otherwise.
func Default() *Config {
	c := &Config{}
	c.Lookup.WhoisTimeoutSeconds = 30
	c.Lookup.DiscoveryTimeoutSeconds = 10
	c.Lookup.LookupTimeoutSeconds = 60
	c.Lookup.MaxResponseSize = 10 * 1024 * 1024
	c.Lookup.MaxReferrals = 10
	c.Lookup.ConcurrentWhoisQueries = 8
	c.Lookup.DiscoveryConcurrency = 4
	c.Cache.TTLSeconds = 3600
	c.Cache.MaxEntries = 10000
	c.Buffers.PoolSize = 100
	c.Buffers.Size = 16384
	c.Server.Addr = "localhost:8080"
	c.Server.RateLimit = 100
	c.Server.RateReset = time.Hour
	c.Database.FilePath = "whodis.db"
	c.Database.BatchSize = 100
	return c
}

// LoadConfig reads a YAML file over the defaults and applies environment
// overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv layers environment variables over whatever the file set.
func (c *Config) applyEnv() error {
	intVars := map[string]*int{
		"WHOIS_TIMEOUT_SECONDS":     &c.Lookup.WhoisTimeoutSeconds,
		"DISCOVERY_TIMEOUT_SECONDS": &c.Lookup.DiscoveryTimeoutSeconds,
		"LOOKUP_TIMEOUT_SECONDS":    &c.Lookup.LookupTimeoutSeconds,
		"MAX_RESPONSE_SIZE":         &c.Lookup.MaxResponseSize,
		"MAX_REFERRALS":             &c.Lookup.MaxReferrals,
		"CONCURRENT_WHOIS_QUERIES":  &c.Lookup.ConcurrentWhoisQueries,
		"DISCOVERY_CONCURRENCY":     &c.Lookup.DiscoveryConcurrency,
		"CACHE_TTL_SECONDS":         &c.Cache.TTLSeconds,
		"CACHE_MAX_ENTRIES":         &c.Cache.MaxEntries,
		"BUFFER_POOL_SIZE":          &c.Buffers.PoolSize,
		"BUFFER_SIZE":               &c.Buffers.Size,
	}
	for name, dst := range intVars {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", name, raw, err)
		}
		*dst = v
	}
	if addr, ok := os.LookupEnv("SERVER_ADDR"); ok && addr != "" {
		c.Server.Addr = addr
	}
	if db, ok := os.LookupEnv("DATABASE_PATH"); ok && db != "" {
		c.Database.FilePath = db
	}
	return nil
}

func (c *Config) validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"whoisTimeoutSeconds", c.Lookup.WhoisTimeoutSeconds},
		{"discoveryTimeoutSeconds", c.Lookup.DiscoveryTimeoutSeconds},
		{"lookupTimeoutSeconds", c.Lookup.LookupTimeoutSeconds},
		{"maxResponseSize", c.Lookup.MaxResponseSize},
		{"maxReferrals", c.Lookup.MaxReferrals},
		{"concurrentWhoisQueries", c.Lookup.ConcurrentWhoisQueries},
		{"discoveryConcurrency", c.Lookup.DiscoveryConcurrency},
		{"cache.ttlSeconds", c.Cache.TTLSeconds},
		{"cache.maxEntries", c.Cache.MaxEntries},
		{"buffers.poolSize", c.Buffers.PoolSize},
		{"buffers.size", c.Buffers.Size},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", check.name, check.value)
		}
	}
	return nil
}

// WhoisTimeout returns the per-whois-step deadline.
func (c *Config) WhoisTimeout() time.Duration {
	return time.Duration(c.Lookup.WhoisTimeoutSeconds) * time.Second
}

// DiscoveryTimeout returns the per-RDAP-step and directory deadline.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Lookup.DiscoveryTimeoutSeconds) * time.Second
}

// LookupTimeout returns the total wall-clock bound for one lookup.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.LookupTimeoutSeconds) * time.Second
}

// CacheTTL returns the per-entry cache expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
