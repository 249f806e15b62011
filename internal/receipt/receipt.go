// Package receipt loads and validates install receipts.
//
// An install receipt is a JSON file written by an app's installer next to the
// app's configuration. It records what was installed, where, and which release
// host serves its updates. The receipt is the only source of truth for the
// currently installed version; the running binary is never interrogated.
package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tdameron/freshen/internal/types"
)

var (
	// ErrNotFound indicates no receipt file exists for the app.
	ErrNotFound = errors.New("install receipt not found")
	// ErrPathMismatch indicates the running executable does not live under
	// the receipt's install prefix, so the receipt describes some other copy.
	ErrPathMismatch = errors.New("executable is not inside the receipt's install prefix")
	// ErrNoHome indicates no home or config directory could be determined.
	ErrNoHome = errors.New("unable to determine config directory")
)

// ParseError reports a receipt file that exists but could not be decoded
// or fails validation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid install receipt %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Source identifies the release host a receipt's app updates from.
type Source struct {
	Backend types.BackendKind `json:"backend"`
	Owner   string            `json:"owner"`
	Repo    string            `json:"repo"`
	AppName string            `json:"app_name"`
}

// InstallReceipt describes one installed app.
type InstallReceipt struct {
	AppName       string              `json:"app_name"`
	Version       string              `json:"version"`
	InstallPrefix string              `json:"install_prefix"`
	InstallMethod types.InstallMethod `json:"install_method,omitempty"`
	SourceTag     string              `json:"source_tag,omitempty"`
	Source        Source              `json:"source"`
}

// Dir returns the directory the app's receipt lives in.
//
// Resolution order: $FRESHEN_CONFIG_PATH is used verbatim; with
// $FRESHEN_CONFIG_WORKING_DIR set the current working directory is used;
// otherwise the platform config dir joined with the app name
// (~/.config/<app> on unix, %LOCALAPPDATA%\<app> on Windows).
func Dir(appName string) (string, error) {
	if dir := os.Getenv("FRESHEN_CONFIG_PATH"); dir != "" {
		return dir, nil
	}
	if os.Getenv("FRESHEN_CONFIG_WORKING_DIR") != "" {
		return os.Getwd()
	}
	if runtime.GOOS == "windows" {
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			return "", ErrNoHome
		}
		return filepath.Join(local, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrNoHome
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the full path of the app's receipt file.
func Path(appName string) (string, error) {
	dir, err := Dir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+"-receipt.json"), nil
}

// Load reads and validates the receipt for appName from its standard
// location. A missing file is ErrNotFound; an unreadable or invalid file
// is a *ParseError.
func Load(appName string) (*InstallReceipt, error) {
	path, err := Path(appName)
	if err != nil {
		return nil, err
	}
	return LoadPath(path, appName)
}

// LoadPath reads and validates the receipt at an explicit path.
func LoadPath(path, appName string) (*InstallReceipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for %s (looked in %s)", ErrNotFound, appName, path)
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	// Receipts written on Windows may carry a UTF-8 BOM.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var r InstallReceipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := r.validate(appName); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &r, nil
}

func (r *InstallReceipt) validate(appName string) error {
	if r.Version == "" {
		return fmt.Errorf("version is required")
	}
	if r.InstallPrefix == "" {
		return fmt.Errorf("install_prefix is required")
	}
	if err := r.Source.Backend.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if r.Source.Owner == "" {
		return fmt.Errorf("source: owner is required")
	}
	if r.Source.Repo == "" && r.Source.AppName == "" {
		return fmt.Errorf("source: repo or app_name is required")
	}
	if err := r.InstallMethod.Validate(); err != nil {
		return err
	}
	if r.AppName != "" && appName != "" && r.AppName != appName {
		return fmt.Errorf("receipt is for app '%s', not '%s'", r.AppName, appName)
	}
	return nil
}

// InstallRoot returns the receipt's install prefix with a trailing "bin"
// component stripped. Installers record either the prefix or its bin
// directory; the root is what the next install should target.
func (r *InstallReceipt) InstallRoot() string {
	return stripBin(filepath.Clean(r.InstallPrefix))
}

func stripBin(dir string) string {
	if filepath.Base(dir) == "bin" {
		return filepath.Dir(dir)
	}
	return dir
}

// MatchesExecutable verifies that the executable at exe lives under the
// receipt's install prefix. A mismatch means this receipt describes a
// different copy of the app and updating would clobber the wrong install.
// Symlinks on both sides are resolved before comparing.
func (r *InstallReceipt) MatchesExecutable(exe string) error {
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	exeRoot := stripBin(filepath.Dir(filepath.Clean(exe)))

	prefix := filepath.Clean(r.InstallPrefix)
	if resolved, err := filepath.EvalSymlinks(prefix); err == nil {
		prefix = resolved
	}
	prefixRoot := stripBin(prefix)

	if exeRoot != prefixRoot {
		return fmt.Errorf("%w: executable in %s, receipt says %s", ErrPathMismatch, exeRoot, prefixRoot)
	}
	return nil
}
