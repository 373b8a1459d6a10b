package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vijay-prabhu/tageval/internal/source"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Source.Kind != SourceE621 {
		t.Errorf("expected Kind=e621, got %s", cfg.Source.Kind)
	}

	if cfg.Source.PageLimit != 32 {
		t.Errorf("expected PageLimit=32, got %d", cfg.Source.PageLimit)
	}

	if got := cfg.Source.RequestIntervalDuration(); got != 500*time.Millisecond {
		t.Errorf("expected RequestInterval=500ms, got %v", got)
	}

	if got := cfg.Source.TimeoutDuration(); got != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %v", got)
	}

	if cfg.Search.PageLimit != source.DefaultPageLimit {
		t.Errorf("expected Search.PageLimit=%d, got %d", source.DefaultPageLimit, cfg.Search.PageLimit)
	}

	if !cfg.Search.RecordHistory {
		t.Error("expected RecordHistory=true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid command source",
			modify: func(c *Config) {
				c.Source.Kind = SourceCommand
				c.Source.Command = []string{"python3", "fetch.py"}
			},
			wantErr: false,
		},
		{
			name: "command source without command",
			modify: func(c *Config) {
				c.Source.Kind = SourceCommand
			},
			wantErr: true,
		},
		{
			name: "invalid source kind",
			modify: func(c *Config) {
				c.Source.Kind = "ftp"
			},
			wantErr: true,
		},
		{
			name: "page limit too large",
			modify: func(c *Config) {
				c.Source.PageLimit = 256
			},
			wantErr: true,
		},
		{
			name: "zero search page limit",
			modify: func(c *Config) {
				c.Search.PageLimit = 0
			},
			wantErr: true,
		},
		{
			name: "zero request interval",
			modify: func(c *Config) {
				c.Source.RequestInterval = "0s"
			},
			wantErr: true,
		},
		{
			name: "negative request interval",
			modify: func(c *Config) {
				c.Source.RequestInterval = "-1s"
			},
			wantErr: true,
		},
		{
			name: "unparsable timeout",
			modify: func(c *Config) {
				c.Source.Timeout = "soon"
			},
			wantErr: true,
		},
		{
			name: "empty tag categories",
			modify: func(c *Config) {
				c.Source.TagCategories = nil
			},
			wantErr: true,
		},
		{
			name: "valid blacklist",
			modify: func(c *Config) {
				c.Search.Blacklist = []string{"gore", "feral -solo", ""}
			},
			wantErr: false,
		},
		{
			name: "blacklist rule with only negations",
			modify: func(c *Config) {
				c.Search.Blacklist = []string{"-solo"}
			},
			wantErr: true,
		},
		{
			name: "trace log level",
			modify: func(c *Config) {
				c.Logging.Level = "trace"
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Logging.Level = "loud"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *Config) {
				c.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result, err := ExpandPath(tt.input)
		if err != nil {
			t.Errorf("ExpandPath(%q) error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Kind != SourceE621 {
		t.Errorf("expected default source kind, got %s", cfg.Source.Kind)
	}
	if filepath.Base(cfg.Database.Path) != "tageval.db" || cfg.Database.Path[0] == '~' {
		t.Errorf("expected expanded database path, got %s", cfg.Database.Path)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[database]
path = "/tmp/tageval-test.db"

[source]
kind = "command"
command = ["sh", "fetch.sh"]
page_limit = 4

[search]
limit = 10
exclude_reacted = true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/tageval-test.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Source.Kind != SourceCommand || len(cfg.Source.Command) != 2 {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Source.PageLimit != 4 {
		t.Errorf("PageLimit = %d, want 4", cfg.Source.PageLimit)
	}
	if cfg.Search.Limit != 10 || !cfg.Search.ExcludeReacted {
		t.Errorf("Search = %+v", cfg.Search)
	}
	// Untouched keys keep their defaults
	if cfg.Source.UserAgent != "tageval/1.0" {
		t.Errorf("UserAgent = %s, want default", cfg.Source.UserAgent)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[source]\nkind = \"ftp\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid source kind")
	}
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Search.Limit = 7
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := Write(path, cfg); err == nil {
		t.Error("expected error when config already exists")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Search.Limit != 7 {
		t.Errorf("Search.Limit = %d, want 7", loaded.Search.Limit)
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvAPIToken, "")

	path := filepath.Join(t.TempDir(), "creds", "credentials.toml")

	_, err := LoadCredentials(path)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("LoadCredentials() error = %v, want ErrMissingCredentials", err)
	}

	want := source.Credentials{Username: "alice", APIToken: "s3cret"}
	if err := SaveCredentials(path, want); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credentials mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if got != want {
		t.Errorf("LoadCredentials() = %+v, want %+v", got, want)
	}
}

func TestCredentialsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	if err := SaveCredentials(path, source.Credentials{Username: "alice", APIToken: "file-token"}); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	t.Setenv(EnvUsername, "")
	t.Setenv(EnvAPIToken, "env-token")

	got, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if got.Username != "alice" || got.APIToken != "env-token" {
		t.Errorf("LoadCredentials() = %+v", got)
	}

	// Environment alone is enough
	t.Setenv(EnvUsername, "bob")
	got, err = LoadCredentials(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if got.Username != "bob" || got.APIToken != "env-token" {
		t.Errorf("LoadCredentials() = %+v", got)
	}
}
