package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vijay-prabhu/tageval/internal/filter"
)

// DefaultPath is where the config file lives unless --config says otherwise
const DefaultPath = "~/.config/tageval/config.toml"

// Load reads and parses the configuration file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	expandedPath, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(expandedPath)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Write saves the configuration as TOML, refusing to overwrite an existing
// file
func Write(path string, cfg *Config) error {
	expandedPath, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}

	if _, err := os.Stat(expandedPath); err == nil {
		return fmt.Errorf("config file already exists: %s", expandedPath)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Database.Path, err = ExpandPath(c.Database.Path)
	if err != nil {
		return err
	}

	c.Credentials.Path, err = ExpandPath(c.Credentials.Path)
	if err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Credentials.Path == "" {
		errs = append(errs, errors.New("credentials.path is required"))
	}

	// Source validation
	switch c.Source.Kind {
	case SourceE621:
		if c.Source.BaseURL == "" {
			errs = append(errs, errors.New("source.base_url is required for the e621 source"))
		}
		if c.Source.UserAgent == "" {
			errs = append(errs, errors.New("source.user_agent is required for the e621 source"))
		}
		if len(c.Source.TagCategories) == 0 {
			errs = append(errs, errors.New("source.tag_categories must not be empty"))
		}
	case SourceCommand:
		if len(c.Source.Command) == 0 {
			errs = append(errs, errors.New("source.command is required for the command source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind must be '%s' or '%s', got '%s'", SourceE621, SourceCommand, c.Source.Kind))
	}

	if c.Source.PageLimit < 1 || c.Source.PageLimit > 255 {
		errs = append(errs, errors.New("source.page_limit must be between 1 and 255"))
	}
	if err := validateDuration("source.request_interval", c.Source.RequestInterval); err != nil {
		errs = append(errs, err)
	}
	if err := validateDuration("source.timeout", c.Source.Timeout); err != nil {
		errs = append(errs, err)
	}

	// Search validation
	if c.Search.PageLimit < 1 || c.Search.PageLimit > 255 {
		errs = append(errs, errors.New("search.page_limit must be between 1 and 255"))
	}
	if c.Search.Limit < 0 {
		errs = append(errs, errors.New("search.limit must not be negative"))
	}
	if _, err := filter.New(c.Search.Blacklist); err != nil {
		errs = append(errs, fmt.Errorf("search.blacklist: %w", err))
	}

	// Logging validation
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging.level must be trace, debug, info, warn or error, got '%s'", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be 'console' or 'json', got '%s'", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateDuration(key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a duration like '500ms', got '%s'", key, value)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got '%s'", key, value)
	}
	return nil
}

// EnsureDirectories creates the directories holding the database and
// credentials
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		filepath.Dir(c.Credentials.Path),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
