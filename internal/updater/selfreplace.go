package updater

import (
	"os"

	"github.com/charmbracelet/log"
)

// replaceState tracks where the running executable is during an update.
type replaceState int

const (
	// stateRunning: the executable is at its original path.
	stateRunning replaceState = iota
	// stateRenamedAside: the executable has been moved to the aside name so
	// the installer can write the new binary at the original path.
	stateRenamedAside
	// stateReplaced: the installer succeeded; the aside copy is disposable.
	stateReplaced
	// stateRolledBack: the installer failed or was cancelled; the original
	// executable is back at its original path.
	stateRolledBack
)

// asideSuffix is appended to the executable path for the rename-aside copy.
const asideSuffix = ".old"

// replaceGuard performs the two-phase self-replacement of the running
// executable. Windows refuses to overwrite a running binary but allows
// renaming it, so the executable is moved aside before the installer runs
// and either deleted (success) or moved back (failure).
type replaceGuard struct {
	execPath  string
	asidePath string
	state     replaceState
}

func newReplaceGuard(execPath string) *replaceGuard {
	return &replaceGuard{
		execPath:  execPath,
		asidePath: execPath + asideSuffix,
		state:     stateRunning,
	}
}

// RenameAside moves the running executable to the aside name.
func (g *replaceGuard) RenameAside() error {
	if err := os.Rename(g.execPath, g.asidePath); err != nil {
		return &SelfReplaceError{Op: "renaming executable aside", Path: g.execPath, Err: err}
	}
	g.state = stateRenamedAside
	return nil
}

// Restore moves the aside copy back to the original path. On failure the
// original remains recoverable at the aside name, reported in the error.
func (g *replaceGuard) Restore() error {
	if g.state != stateRenamedAside {
		return nil
	}
	if err := os.Rename(g.asidePath, g.execPath); err != nil {
		return &SelfReplaceError{Op: "restoring executable from", Path: g.asidePath, Err: err}
	}
	g.state = stateRolledBack
	return nil
}

// Finish marks the replacement committed and deletes the aside copy.
// Deletion is best-effort; a leftover aside file is harmless.
func (g *replaceGuard) Finish(logger *log.Logger) {
	if g.state != stateRenamedAside {
		return
	}
	g.state = stateReplaced
	if err := os.Remove(g.asidePath); err != nil {
		logger.Warn("could not remove old executable", "path", g.asidePath, "err", err)
	}
}
