package updater

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func writeExe(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "myapp")
	if err := os.WriteFile(path, []byte("original binary"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplaceGuardRenameAndRestore(t *testing.T) {
	exe := writeExe(t, t.TempDir())
	g := newReplaceGuard(exe)

	if err := g.RenameAside(); err != nil {
		t.Fatalf("RenameAside: %v", err)
	}
	if _, err := os.Stat(exe); !os.IsNotExist(err) {
		t.Error("executable still at original path after rename aside")
	}
	data, err := os.ReadFile(g.asidePath)
	if err != nil {
		t.Fatalf("aside copy missing: %v", err)
	}
	if string(data) != "original binary" {
		t.Errorf("aside copy content = %q", data)
	}

	if err := g.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if g.state != stateRolledBack {
		t.Errorf("state = %d, want stateRolledBack", g.state)
	}
	data, err = os.ReadFile(exe)
	if err != nil {
		t.Fatalf("executable missing after restore: %v", err)
	}
	if string(data) != "original binary" {
		t.Errorf("restored content = %q", data)
	}
	if _, err := os.Stat(g.asidePath); !os.IsNotExist(err) {
		t.Error("aside copy still present after restore")
	}
}

func TestReplaceGuardFinish(t *testing.T) {
	exe := writeExe(t, t.TempDir())
	g := newReplaceGuard(exe)

	if err := g.RenameAside(); err != nil {
		t.Fatalf("RenameAside: %v", err)
	}
	// Simulate the installer writing the new binary.
	if err := os.WriteFile(exe, []byte("new binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	g.Finish(log.New(io.Discard))
	if g.state != stateReplaced {
		t.Errorf("state = %d, want stateReplaced", g.state)
	}
	if _, err := os.Stat(g.asidePath); !os.IsNotExist(err) {
		t.Error("aside copy not removed on success")
	}
	data, _ := os.ReadFile(exe)
	if string(data) != "new binary" {
		t.Errorf("executable content = %q, want new binary", data)
	}
}

func TestReplaceGuardRestoreIsNoopBeforeRename(t *testing.T) {
	g := newReplaceGuard(filepath.Join(t.TempDir(), "myapp"))
	if err := g.Restore(); err != nil {
		t.Errorf("Restore before rename: %v", err)
	}
	g.Finish(log.New(io.Discard))
	if g.state != stateRunning {
		t.Errorf("state = %d, want stateRunning untouched", g.state)
	}
}

func TestReplaceGuardRenameFailure(t *testing.T) {
	g := newReplaceGuard(filepath.Join(t.TempDir(), "does-not-exist"))
	err := g.RenameAside()
	var serr *SelfReplaceError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %T (%v), want *SelfReplaceError", err, err)
	}
	if serr.Path != g.execPath {
		t.Errorf("Path = %q, want %q", serr.Path, g.execPath)
	}
	if g.state != stateRunning {
		t.Errorf("state = %d, want stateRunning after failed rename", g.state)
	}
}
