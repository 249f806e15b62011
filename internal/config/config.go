// Package config handles the optional updater configuration file.
//
// The file is not required; everything it holds has a sensible default or an
// environment override. It lives at <config dir>/freshen/config.toml but is
// accepted in YAML or JSON as well, with the format detected from the
// extension or the content.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds updater settings.
type Config struct {
	// GitHubToken authenticates GitHub API requests.
	GitHubToken string `toml:"github_token" yaml:"github_token" json:"github_token"`
	// GitHubAPIBase and DepotAPIBase override the release-host API bases.
	GitHubAPIBase string `toml:"github_api_base" yaml:"github_api_base" json:"github_api_base"`
	DepotAPIBase  string `toml:"depot_api_base" yaml:"depot_api_base" json:"depot_api_base"`
	// InstallerOutput controls whether installer output is shown. Unset
	// means shown.
	InstallerOutput *bool `toml:"installer_output" yaml:"installer_output" json:"installer_output"`
	// TimeoutSeconds bounds each HTTP request. Zero means no timeout.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// DefaultPath returns the standard config file location.
// $FRESHEN_CONFIG_FILE overrides it.
func DefaultPath() (string, error) {
	if path := os.Getenv("FRESHEN_CONFIG_FILE"); path != "" {
		return path, nil
	}
	if runtime.GOOS == "windows" {
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			return "", fmt.Errorf("LOCALAPPDATA is not set")
		}
		return filepath.Join(local, "freshen", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "freshen", "config.toml"), nil
}

// LoadDefault loads the config from its standard location, returning
// defaults when no file exists.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return nil
}

// ShowInstallerOutput reports whether installer output should be shown.
func (c *Config) ShowInstallerOutput() bool {
	return c.InstallerOutput == nil || *c.InstallerOutput
}

// HTTPClient builds the HTTP client the configuration describes.
func (c *Config) HTTPClient() *http.Client {
	if c.TimeoutSeconds <= 0 {
		return http.DefaultClient
	}
	return &http.Client{Timeout: time.Duration(c.TimeoutSeconds) * time.Second}
}
