package config

import (
	"time"

	"github.com/vijay-prabhu/tageval/internal/source"
)

// Source kinds
const (
	SourceE621    = "e621"
	SourceCommand = "command"
)

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Credentials CredentialsConfig `toml:"credentials"`
	Source      SourceConfig      `toml:"source"`
	Search      SearchConfig      `toml:"search"`
	Logging     LoggingConfig     `toml:"logging"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// CredentialsConfig locates the credentials file
type CredentialsConfig struct {
	Path string `toml:"path"`
}

// SourceConfig selects and tunes the post source
type SourceConfig struct {
	Kind            string   `toml:"kind"`
	BaseURL         string   `toml:"base_url"`
	UserAgent       string   `toml:"user_agent"`
	PageLimit       int      `toml:"page_limit"`
	RequestInterval string   `toml:"request_interval"`
	Timeout         string   `toml:"timeout"`
	TagCategories   []string `toml:"tag_categories"`
	Command         []string `toml:"command"`
}

// RequestIntervalDuration returns the minimum spacing between requests
func (s SourceConfig) RequestIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(s.RequestInterval)
	return d
}

// TimeoutDuration returns the per-request timeout
func (s SourceConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}

// SearchConfig contains defaults for the search command
type SearchConfig struct {
	PageLimit      int      `toml:"page_limit"`
	Limit          int      `toml:"limit"`
	ExcludeReacted bool     `toml:"exclude_reacted"`
	RecordHistory  bool     `toml:"record_history"`
	Blacklist      []string `toml:"blacklist"` // One rule per entry, e.g. "gore" or "feral -solo"
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "~/.local/share/tageval/tageval.db",
		},
		Credentials: CredentialsConfig{
			Path: "~/.config/tageval/credentials.toml",
		},
		Source: SourceConfig{
			Kind:            SourceE621,
			BaseURL:         "https://e621.net",
			UserAgent:       "tageval/1.0",
			PageLimit:       source.DefaultPageLimit,
			RequestInterval: "500ms",
			Timeout:         "30s",
			TagCategories:   []string{"general", "species", "character", "artist"},
		},
		Search: SearchConfig{
			PageLimit:     source.DefaultPageLimit,
			Limit:         50,
			RecordHistory: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
