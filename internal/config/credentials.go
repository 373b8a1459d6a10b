package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/vijay-prabhu/tageval/internal/source"
)

// Environment variables overriding the credentials file
const (
	EnvUsername = "TAGEVAL_USERNAME"
	EnvAPIToken = "TAGEVAL_API_TOKEN"
)

// ErrMissingCredentials is returned when no username is configured
var ErrMissingCredentials = errors.New("credentials not configured")

type credentialsFile struct {
	Username string `toml:"username"`
	APIToken string `toml:"api_token"`
}

// LoadCredentials reads the credentials file and applies environment
// overrides. A missing file is fine when the environment supplies a username.
func LoadCredentials(path string) (source.Credentials, error) {
	var f credentialsFile

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return source.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, &f); err != nil {
			return source.Credentials{}, fmt.Errorf("failed to parse credentials: %w", err)
		}
	}

	if v := os.Getenv(EnvUsername); v != "" {
		f.Username = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		f.APIToken = v
	}

	if f.Username == "" {
		return source.Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, path)
	}

	return source.Credentials{Username: f.Username, APIToken: f.APIToken}, nil
}

// SaveCredentials writes the credentials file readable by the owner only
func SaveCredentials(path string, creds source.Credentials) error {
	data, err := toml.Marshal(credentialsFile{
		Username: creds.Username,
		APIToken: creds.APIToken,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict credentials: %w", err)
	}

	return nil
}
