// Package config defines the termgraph service configuration: a YAML file
// with environment variable overrides, validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/c360/termgraph/errors"
)

// Config is the full service configuration.
type Config struct {
	// ReleaseDir is the SNOMED CT RF2 release directory to load.
	ReleaseDir string `yaml:"release_dir"`

	// ClosureCachePath enables on-disk closure caching when non-empty.
	ClosureCachePath string `yaml:"closure_cache_path"`

	Load  LoadConfig  `yaml:"load"`
	NATS  NATSConfig  `yaml:"nats"`
	Query QueryConfig `yaml:"query"`

	// HTTPAddr serves Prometheus metrics (e.g. ":9090").
	HTTPAddr string `yaml:"http_addr"`
}

// LoadConfig controls release ingestion.
type LoadConfig struct {
	Parallel               bool     `yaml:"parallel"`
	ActiveOnly             bool     `yaml:"active_only"`
	Languages              []string `yaml:"languages"`
	IncludeStated          bool     `yaml:"include_stated"`
	IncludeTextDefinitions bool     `yaml:"include_text_definitions"`
}

// NATSConfig controls the query transport.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Queue         string `yaml:"queue"`
}

// QueryConfig controls query execution.
type QueryConfig struct {
	Workers      int     `yaml:"workers"`
	QueueSize    int     `yaml:"queue_size"`
	CacheSize    int     `yaml:"cache_size"`
	RateLimit    float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst    int     `yaml:"rate_burst"`
	DefaultLimit int     `yaml:"default_limit"`
}

// SetDefaults fills unset fields with production defaults.
func (c *Config) SetDefaults() {
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "termgraph.query"
	}
	if c.NATS.Queue == "" {
		c.NATS.Queue = "termgraph"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":9090"
	}
	if len(c.Load.Languages) == 0 {
		c.Load.Languages = []string{"en"}
	}
	if c.Query.Workers == 0 {
		c.Query.Workers = 8
	}
	if c.Query.QueueSize == 0 {
		c.Query.QueueSize = 256
	}
	if c.Query.CacheSize == 0 {
		c.Query.CacheSize = 1024
	}
	if c.Query.RateBurst == 0 {
		c.Query.RateBurst = 100
	}
	if c.Query.DefaultLimit == 0 {
		c.Query.DefaultLimit = 1000
	}
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	if c.ReleaseDir == "" {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: release_dir is required", errors.ErrInvalidConfig),
			"Config", "Validate", "release directory")
	}
	if c.Query.Workers < 0 || c.Query.QueueSize < 0 {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: query workers and queue size must not be negative",
				errors.ErrInvalidConfig),
			"Config", "Validate", "query limits")
	}
	if c.Query.RateLimit < 0 {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: rate_limit must not be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "rate limit")
	}
	return nil
}

// Load reads the YAML file at path (when non-empty), applies environment
// overrides, defaults, and validation.
func Load(path string) (Config, error) {
	var c Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, errors.WrapConfiguration(err, "Config", "Load", "reading "+path)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, errors.WrapConfiguration(err, "Config", "Load", "parsing "+path)
		}
	} else {
		// File-less startup still defaults to loading active rows only.
		c.Load.ActiveOnly = true
	}

	c.applyEnv()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// applyEnv overrides fields from TERMGRAPH_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("TERMGRAPH_RELEASE_DIR"); v != "" {
		c.ReleaseDir = v
	}
	if v := os.Getenv("TERMGRAPH_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("TERMGRAPH_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("TERMGRAPH_CLOSURE_CACHE"); v != "" {
		c.ClosureCachePath = v
	}
	if v := os.Getenv("TERMGRAPH_PARALLEL_LOAD"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Load.Parallel = parsed
		}
	}
}
