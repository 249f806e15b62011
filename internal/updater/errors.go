package updater

import (
	"errors"
	"fmt"
)

var (
	// ErrCancellationRefused indicates the caller's context was cancelled at
	// a point where stopping would have left the executable replaced halfway.
	// The original executable has been restored.
	ErrCancellationRefused = errors.New("update cancelled before installer start; original executable restored")

	// ErrUnsupportedInstall indicates the app was installed by a package
	// manager and must be updated through it.
	ErrUnsupportedInstall = errors.New("install is managed by a package manager")

	// ErrUpdateSelf indicates the updater binary is running under its own
	// name instead of being installed as <app>-update for some app.
	ErrUpdateSelf = errors.New("updater is not installed alongside an app")
)

// DownloadError reports a failed installer download.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading installer from %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// InstallerError reports an installer process that started but failed.
// Output holds the captured combined stdout/stderr for diagnostics.
type InstallerError struct {
	Path     string
	ExitCode int
	Output   string
	Err      error
}

func (e *InstallerError) Error() string {
	return fmt.Sprintf("installer %s failed with exit status %d", e.Path, e.ExitCode)
}

func (e *InstallerError) Unwrap() error {
	return e.Err
}

// SelfReplaceError reports a failed rename or restore of the running
// executable. Path is the file the failed operation targeted; after a
// failed restore it is the aside name the original is still recoverable at.
type SelfReplaceError struct {
	Op   string
	Path string
	Err  error
}

func (e *SelfReplaceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SelfReplaceError) Unwrap() error {
	return e.Err
}
