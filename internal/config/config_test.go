package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `github_token = "tok"
github_api_base = "https://ghe.example.com/api/v3"
timeout_seconds = 30
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `github_token: tok
github_api_base: https://ghe.example.com/api/v3
timeout_seconds: 30
`,
		},
		{
			name: "json",
			file: "config.json",
			content: `{
  "github_token": "tok",
  "github_api_base": "https://ghe.example.com/api/v3",
  "timeout_seconds": 30
}`,
		},
		{
			name: "extensionless toml sniffed",
			file: "config",
			content: `github_token = "tok"
github_api_base = "https://ghe.example.com/api/v3"
timeout_seconds = 30
`,
		},
		{
			name: "extensionless yaml sniffed",
			file: "config",
			content: `github_token: tok
github_api_base: https://ghe.example.com/api/v3
timeout_seconds: 30
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.GitHubToken != "tok" {
				t.Errorf("GitHubToken = %q, want tok", cfg.GitHubToken)
			}
			if cfg.GitHubAPIBase != "https://ghe.example.com/api/v3" {
				t.Errorf("GitHubAPIBase = %q", cfg.GitHubAPIBase)
			}
			if cfg.TimeoutSeconds != 30 {
				t.Errorf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "config.toml"))
		if !os.IsNotExist(err) {
			t.Errorf("error = %v, want IsNotExist", err)
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "config.toml", "github_token = \n"))
		if err == nil {
			t.Error("Load succeeded on malformed TOML")
		}
	})

	t.Run("negative timeout rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "config.toml", "timeout_seconds = -5\n"))
		if err == nil {
			t.Error("Load accepted negative timeout")
		}
	})
}

func TestLoadDefault(t *testing.T) {
	t.Run("no file gives defaults", func(t *testing.T) {
		t.Setenv("FRESHEN_CONFIG_FILE", filepath.Join(t.TempDir(), "config.toml"))
		cfg, err := LoadDefault()
		if err != nil {
			t.Fatalf("LoadDefault: %v", err)
		}
		if cfg.GitHubToken != "" || cfg.TimeoutSeconds != 0 {
			t.Errorf("defaults = %+v", cfg)
		}
		if !cfg.ShowInstallerOutput() {
			t.Error("ShowInstallerOutput default = false, want true")
		}
	})

	t.Run("env path respected", func(t *testing.T) {
		path := writeConfig(t, "config.toml", "github_token = \"envtok\"\n")
		t.Setenv("FRESHEN_CONFIG_FILE", path)
		cfg, err := LoadDefault()
		if err != nil {
			t.Fatalf("LoadDefault: %v", err)
		}
		if cfg.GitHubToken != "envtok" {
			t.Errorf("GitHubToken = %q, want envtok", cfg.GitHubToken)
		}
	})
}

func TestHTTPClient(t *testing.T) {
	if c := (&Config{}).HTTPClient(); c.Timeout != 0 {
		t.Errorf("zero config timeout = %v, want 0", c.Timeout)
	}
	if c := (&Config{TimeoutSeconds: 45}).HTTPClient(); c.Timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", c.Timeout)
	}
}

func TestShowInstallerOutput(t *testing.T) {
	off := false
	on := true
	if (&Config{InstallerOutput: &off}).ShowInstallerOutput() {
		t.Error("explicit false should hide installer output")
	}
	if !(&Config{InstallerOutput: &on}).ShowInstallerOutput() {
		t.Error("explicit true should show installer output")
	}
}
