package receipt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tdameron/freshen/internal/types"
)

func writeReceipt(t *testing.T, dir, appName, content string) string {
	t.Helper()
	path := filepath.Join(dir, appName+"-receipt.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing receipt: %v", err)
	}
	return path
}

const validReceipt = `{
  "app_name": "axolotlsay",
  "version": "1.2.0",
  "install_prefix": "/home/user/.local/share/axolotlsay",
  "install_method": "shell",
  "source": {
    "backend": "github",
    "owner": "axodotdev",
    "repo": "axolotlsay",
    "app_name": "axolotlsay"
  }
}`

func TestDir(t *testing.T) {
	t.Run("explicit config path wins", func(t *testing.T) {
		t.Setenv("FRESHEN_CONFIG_PATH", "/opt/receipts")
		t.Setenv("FRESHEN_CONFIG_WORKING_DIR", "1")
		dir, err := Dir("myapp")
		if err != nil {
			t.Fatalf("Dir: %v", err)
		}
		if dir != "/opt/receipts" {
			t.Errorf("Dir = %q, want /opt/receipts", dir)
		}
	})

	t.Run("working dir override", func(t *testing.T) {
		t.Setenv("FRESHEN_CONFIG_PATH", "")
		t.Setenv("FRESHEN_CONFIG_WORKING_DIR", "1")
		dir, err := Dir("myapp")
		if err != nil {
			t.Fatalf("Dir: %v", err)
		}
		wd, _ := os.Getwd()
		if dir != wd {
			t.Errorf("Dir = %q, want working dir %q", dir, wd)
		}
	})

	t.Run("default under config dir", func(t *testing.T) {
		t.Setenv("FRESHEN_CONFIG_PATH", "")
		t.Setenv("FRESHEN_CONFIG_WORKING_DIR", "")
		dir, err := Dir("myapp")
		if err != nil {
			t.Fatalf("Dir: %v", err)
		}
		if filepath.Base(dir) != "myapp" {
			t.Errorf("Dir = %q, want path ending in myapp", dir)
		}
	})
}

func TestLoadPath(t *testing.T) {
	t.Run("valid receipt", func(t *testing.T) {
		path := writeReceipt(t, t.TempDir(), "axolotlsay", validReceipt)
		r, err := LoadPath(path, "axolotlsay")
		if err != nil {
			t.Fatalf("LoadPath: %v", err)
		}
		if r.Version != "1.2.0" {
			t.Errorf("Version = %q, want 1.2.0", r.Version)
		}
		if r.InstallMethod != types.InstallMethodShell {
			t.Errorf("InstallMethod = %q, want shell", r.InstallMethod)
		}
		if !r.Source.Backend.IsGitHub() {
			t.Errorf("Source.Backend = %q, want github", r.Source.Backend)
		}
		if r.Source.Owner != "axodotdev" || r.Source.Repo != "axolotlsay" {
			t.Errorf("Source = %+v, want axodotdev/axolotlsay", r.Source)
		}
	})

	t.Run("bom prefixed receipt", func(t *testing.T) {
		path := writeReceipt(t, t.TempDir(), "axolotlsay", "\xEF\xBB\xBF"+validReceipt)
		r, err := LoadPath(path, "axolotlsay")
		if err != nil {
			t.Fatalf("LoadPath with BOM: %v", err)
		}
		if r.Version != "1.2.0" {
			t.Errorf("Version = %q, want 1.2.0", r.Version)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPath(filepath.Join(t.TempDir(), "nope-receipt.json"), "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeReceipt(t, t.TempDir(), "broken", `{"version": `)
		_, err := LoadPath(path, "broken")
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("error = %T, want *ParseError", err)
		}
		if perr.Path != path {
			t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
		}
	})

	t.Run("wrong app name", func(t *testing.T) {
		path := writeReceipt(t, t.TempDir(), "axolotlsay", validReceipt)
		_, err := LoadPath(path, "otherapp")
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("error = %T, want *ParseError", err)
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() InstallReceipt {
		return InstallReceipt{
			AppName:       "myapp",
			Version:       "1.0.0",
			InstallPrefix: "/opt/myapp",
			Source: Source{
				Backend: types.BackendGitHub,
				Owner:   "me",
				Repo:    "myapp",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*InstallReceipt)
		wantErr bool
	}{
		{"valid", func(r *InstallReceipt) {}, false},
		{"empty install method is valid", func(r *InstallReceipt) { r.InstallMethod = "" }, false},
		{"missing version", func(r *InstallReceipt) { r.Version = "" }, true},
		{"missing install prefix", func(r *InstallReceipt) { r.InstallPrefix = "" }, true},
		{"missing backend", func(r *InstallReceipt) { r.Source.Backend = "" }, true},
		{"bogus backend", func(r *InstallReceipt) { r.Source.Backend = "gitlab" }, true},
		{"missing owner", func(r *InstallReceipt) { r.Source.Owner = "" }, true},
		{"bogus install method", func(r *InstallReceipt) { r.InstallMethod = "carrier-pigeon" }, true},
		{"depot source without repo", func(r *InstallReceipt) {
			r.Source.Backend = types.BackendDepot
			r.Source.Repo = ""
			r.Source.AppName = "myapp"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := r.validate("myapp")
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInstallRoot(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"/opt/myapp", "/opt/myapp"},
		{"/opt/myapp/bin", "/opt/myapp"},
		{"/opt/myapp/bin/", "/opt/myapp"},
	}

	for _, tt := range tests {
		r := InstallReceipt{InstallPrefix: tt.prefix}
		if got := r.InstallRoot(); got != tt.want {
			t.Errorf("InstallRoot(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestMatchesExecutable(t *testing.T) {
	t.Run("executable directly under prefix", func(t *testing.T) {
		r := InstallReceipt{InstallPrefix: "/home/user/.myapp"}
		if err := r.MatchesExecutable("/home/user/.myapp/myapp"); err != nil {
			t.Errorf("MatchesExecutable: %v", err)
		}
	})

	t.Run("executable in bin under prefix", func(t *testing.T) {
		r := InstallReceipt{InstallPrefix: "/home/user/.myapp"}
		if err := r.MatchesExecutable("/home/user/.myapp/bin/myapp"); err != nil {
			t.Errorf("MatchesExecutable: %v", err)
		}
	})

	t.Run("prefix recorded with bin", func(t *testing.T) {
		r := InstallReceipt{InstallPrefix: "/home/user/.myapp/bin"}
		if err := r.MatchesExecutable("/home/user/.myapp/bin/myapp"); err != nil {
			t.Errorf("MatchesExecutable: %v", err)
		}
	})

	t.Run("different install", func(t *testing.T) {
		r := InstallReceipt{InstallPrefix: "/home/user/.myapp"}
		err := r.MatchesExecutable("/usr/local/bin/myapp")
		if !errors.Is(err, ErrPathMismatch) {
			t.Errorf("error = %v, want ErrPathMismatch", err)
		}
	})

	t.Run("symlinked executable resolves", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "real", "bin")
		if err := os.MkdirAll(target, 0o755); err != nil {
			t.Fatal(err)
		}
		exe := filepath.Join(target, "myapp")
		if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
		link := filepath.Join(dir, "myapp")
		if err := os.Symlink(exe, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		r := InstallReceipt{InstallPrefix: filepath.Join(dir, "real")}
		if err := r.MatchesExecutable(link); err != nil {
			t.Errorf("MatchesExecutable via symlink: %v", err)
		}
	})
}
