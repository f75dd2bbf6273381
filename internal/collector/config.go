package collector

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultInterval    = 15 * time.Minute
	defaultConcurrency = 4
	defaultUserAgent   = "osint-stories-collector/1.0"
)

// Config is the collector's YAML configuration
type Config struct {
	Interval    time.Duration  `yaml:"interval"`
	Concurrency int            `yaml:"concurrency"`
	UserAgent   string         `yaml:"user_agent"`
	Sources     []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one RSS or Atom feed
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	GroupID  string `yaml:"group"`
	URL      string `yaml:"url"`
	Language string `yaml:"language"`

	// RatePerMinute caps requests to this source, feed and linked pages
	// together. Zero means unlimited.
	RatePerMinute float64 `yaml:"rate_per_minute"`

	// Enrich fetches the linked page when an entry has no body
	Enrich bool `yaml:"enrich"`

	// Attributes are copied onto every item collected from the source
	Attributes map[string]string `yaml:"attributes"`

	Disabled bool `yaml:"disabled"`
}

// LoadConfig reads and validates a collector config file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collector config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, fills defaults and validates the source list
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse collector config: %w", err)
	}

	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	seen := make(map[string]bool)
	for i := range config.Sources {
		source := &config.Sources[i]
		source.ID = strings.TrimSpace(source.ID)
		source.URL = strings.TrimSpace(source.URL)
		if source.ID == "" {
			return nil, fmt.Errorf("source %d: id is required", i)
		}
		if source.URL == "" {
			return nil, fmt.Errorf("source %s: url is required", source.ID)
		}
		if seen[source.ID] {
			return nil, fmt.Errorf("source %s: duplicate id", source.ID)
		}
		seen[source.ID] = true
		if source.Name == "" {
			source.Name = source.ID
		}
		if source.RatePerMinute < 0 {
			return nil, fmt.Errorf("source %s: rate_per_minute must not be negative", source.ID)
		}
	}

	return &config, nil
}

// Enabled returns the sources that are not disabled
func (c *Config) Enabled() []SourceConfig {
	var sources []SourceConfig
	for _, source := range c.Sources {
		if !source.Disabled {
			sources = append(sources, source)
		}
	}
	return sources
}
