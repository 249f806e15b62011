package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tdameron/freshen/internal/release"
	"github.com/tdameron/freshen/internal/version"
)

// installDirEnv tells the fetched installer where to install, overriding
// whatever default the installer would pick.
const installDirEnv = "FRESHEN_FORCE_INSTALL_DIR"

// install downloads the target release's installer and runs it.
func (u *Updater) install(ctx context.Context, current *version.Version, target *release.Release) (*UpdateResult, error) {
	asset, err := release.SelectInstaller(u.sourceApp(), u.target, target.Assets)
	if err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp("", "freshen-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			u.logger.Warn("could not clean up staging dir", "path", staging, "err", err)
		}
	}()

	installerPath, err := u.download(ctx, asset, staging)
	if err != nil {
		return nil, err
	}

	u.logger.Info("installing", "app", u.app, "from", current, "to", target.Version)
	if err := u.replaceAndRun(ctx, installerPath); err != nil {
		return nil, err
	}

	return &UpdateResult{
		OldVersion:    current,
		NewVersion:    target.Version,
		Tag:           target.Tag,
		InstallPrefix: u.rcpt.InstallRoot(),
	}, nil
}

// download fetches the installer asset into the staging dir and marks it
// executable.
func (u *Updater) download(ctx context.Context, asset *release.Asset, staging string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, http.NoBody)
	if err != nil {
		return "", &DownloadError{URL: asset.DownloadURL, Err: err}
	}
	req.Header.Set("User-Agent", u.userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: asset.DownloadURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{
			URL: asset.DownloadURL,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	path := filepath.Join(staging, asset.Name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return "", &DownloadError{URL: asset.DownloadURL, Err: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", &DownloadError{URL: asset.DownloadURL, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &DownloadError{URL: asset.DownloadURL, Err: err}
	}
	return path, nil
}

// replaceAndRun runs the installer, with the running executable renamed
// aside first on platforms that cannot overwrite a running binary. The
// rename is the commit point: cancellation observed after it restores the
// original and refuses; once the installer starts it runs to completion
// detached from the caller's context.
func (u *Updater) replaceAndRun(ctx context.Context, installerPath string) error {
	var guard *replaceGuard
	if runtime.GOOS == "windows" || u.forceRenameAside {
		exe, err := osExecutable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}
		if resolved, err := evalSymlinks(exe); err == nil {
			exe = resolved
		}
		guard = newReplaceGuard(exe)
		if err := guard.RenameAside(); err != nil {
			return err
		}
		if ctx.Err() != nil {
			if rerr := guard.Restore(); rerr != nil {
				return rerr
			}
			return ErrCancellationRefused
		}
	}

	if err := u.runInstaller(installerPath); err != nil {
		if guard != nil {
			// A failed restore must not swallow the installer failure:
			// both the recoverable aside path and the exit diagnostics
			// matter to the caller.
			if rerr := guard.Restore(); rerr != nil {
				return errors.Join(rerr, err)
			}
		}
		return err
	}

	if guard != nil {
		guard.Finish(u.logger)
	}
	return nil
}

// runInstaller executes the installer script and waits for it, capturing
// combined output for diagnostics.
func (u *Updater) runInstaller(installerPath string) error {
	var cmd *exec.Cmd
	if strings.HasSuffix(installerPath, ".ps1") {
		cmd = exec.Command("powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-File", installerPath)
	} else {
		cmd = exec.Command(installerPath)
	}

	cmd.Env = installerEnv(os.Environ(), u.rcpt.InstallRoot())

	var output bytes.Buffer
	cmd.Stdout = teeOutput(&output, u.installerStdout)
	cmd.Stderr = teeOutput(&output, u.installerStderr)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &InstallerError{
			Path:     installerPath,
			ExitCode: exitCode,
			Output:   output.String(),
			Err:      err,
		}
	}
	return nil
}

// installerEnv builds the child installer's environment: the install dir
// override is added and, on Windows, PSModulePath is dropped so the child
// PowerShell does not load modules from the parent's session.
func installerEnv(base []string, installRoot string) []string {
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if runtime.GOOS == "windows" && strings.HasPrefix(kv, "PSModulePath=") {
			continue
		}
		if strings.HasPrefix(kv, installDirEnv+"=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, installDirEnv+"="+installRoot)
}

func teeOutput(capture *bytes.Buffer, passthrough io.Writer) io.Writer {
	if passthrough == nil {
		return capture
	}
	return io.MultiWriter(capture, passthrough)
}
