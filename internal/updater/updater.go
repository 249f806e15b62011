// Package updater decides whether an app needs an update and applies it.
//
// The Updater ties the pieces together: it loads the app's install receipt,
// resolves the target release from the receipt's release host, compares
// versions, downloads the platform installer, and runs it with the running
// executable safely moved out of the way where the platform requires it.
//
// Every operation exists in two forms: a context-aware method that suspends
// at network and child-process waits, and a *Sync wrapper that blocks on
// context.Background(). Use whichever fits the caller.
package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tdameron/freshen/internal/receipt"
	"github.com/tdameron/freshen/internal/release"
	"github.com/tdameron/freshen/internal/version"
)

// Request selects which release to update to. The zero value requests the
// latest stable release; a set Tag requests that exact release, honored even
// when it is older than the installed version.
type Request struct {
	Tag string
}

// UpdateResult describes a completed update.
type UpdateResult struct {
	OldVersion    *version.Version
	NewVersion    *version.Version
	Tag           string
	InstallPrefix string
}

// Options configures an Updater. The zero value works for production use.
type Options struct {
	// HTTPClient is used for all API calls and downloads.
	HTTPClient *http.Client
	// Token authenticates release-host API requests.
	Token string
	// GitHubBaseURL and DepotBaseURL override the release-host API bases.
	GitHubBaseURL string
	DepotBaseURL  string
	// UserAgent is sent with every request.
	UserAgent string
	// InstallerStdout and InstallerStderr receive the child installer's
	// output as it runs. When nil the output is only captured for errors.
	InstallerStdout io.Writer
	InstallerStderr io.Writer
	// Logger receives engine diagnostics. Defaults to a discarding logger.
	Logger *log.Logger
}

// Updater checks for and applies updates for one installed app.
type Updater struct {
	app     string
	request Request

	client          *http.Client
	token           string
	githubBase      string
	depotBase       string
	userAgent       string
	installerStdout io.Writer
	installerStderr io.Writer
	logger          *log.Logger

	rcpt    *receipt.InstallReceipt
	backend release.Backend
	target  release.Target

	// forceRenameAside applies the Windows rename-aside dance on every
	// platform. Set by tests to exercise the guard.
	forceRenameAside bool
}

// Test seams, set by tests to fake the running executable.
var (
	osExecutable = os.Executable
	evalSymlinks = filepath.EvalSymlinks
)

// New creates an Updater for the named app.
func New(app string, req Request, opts Options) *Updater {
	u := &Updater{
		app:             app,
		request:         req,
		client:          opts.HTTPClient,
		token:           opts.Token,
		githubBase:      opts.GitHubBaseURL,
		depotBase:       opts.DepotBaseURL,
		userAgent:       opts.UserAgent,
		installerStdout: opts.InstallerStdout,
		installerStderr: opts.InstallerStderr,
		logger:          opts.Logger,
		target:          release.CurrentTarget(),
	}
	if u.client == nil {
		u.client = http.DefaultClient
	}
	if u.userAgent == "" {
		u.userAgent = "freshen"
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard)
	}
	return u
}

// ForExecutable creates an Updater for the app the running executable was
// installed next to, derived from the executable's own name.
func ForExecutable(req Request, opts Options) (*Updater, error) {
	app, err := AppNameFromExecutable()
	if err != nil {
		return nil, err
	}
	return New(app, req, opts), nil
}

// AppNameFromExecutable derives the app name the updater serves.
// $FRESHEN_APP_NAME wins; otherwise the executable's base name with any
// ".exe" and "-update" suffixes stripped. An updater running under its own
// bare name has not been installed for any app and fails with ErrUpdateSelf.
func AppNameFromExecutable() (string, error) {
	if name := os.Getenv("FRESHEN_APP_NAME"); name != "" {
		return name, nil
	}
	exe, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-update")
	if name == "" || name == "freshen" {
		return "", ErrUpdateSelf
	}
	return name, nil
}

// AppName returns the app this Updater serves.
func (u *Updater) AppName() string {
	return u.app
}

// Receipt returns the loaded install receipt, or nil before LoadReceipt.
func (u *Updater) Receipt() *receipt.InstallReceipt {
	return u.rcpt
}

// LoadReceipt loads the app's install receipt and verifies it describes the
// install the running executable belongs to. Called automatically by the
// check and run operations when needed.
func (u *Updater) LoadReceipt() error {
	r, err := receipt.Load(u.app)
	if err != nil {
		return err
	}
	exe, err := osExecutable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := evalSymlinks(exe); err == nil {
		exe = resolved
	}
	if err := r.MatchesExecutable(exe); err != nil {
		return err
	}
	u.rcpt = r
	return nil
}

func (u *Updater) ensureReceipt() error {
	if u.rcpt != nil {
		return nil
	}
	return u.LoadReceipt()
}

// sourceApp returns the app name the release host publishes assets under.
func (u *Updater) sourceApp() string {
	if u.rcpt.Source.AppName != "" {
		return u.rcpt.Source.AppName
	}
	if u.rcpt.AppName != "" {
		return u.rcpt.AppName
	}
	return u.app
}

func (u *Updater) ensureBackend() (release.Backend, error) {
	if u.backend != nil {
		return u.backend, nil
	}
	if err := u.ensureReceipt(); err != nil {
		return nil, err
	}

	opts := []release.Option{
		release.WithHTTPClient(u.client),
		release.WithUserAgent(u.userAgent),
	}
	if u.token != "" {
		opts = append(opts, release.WithToken(u.token))
	}

	src := u.rcpt.Source
	switch {
	case src.Backend.IsGitHub():
		if u.githubBase != "" {
			opts = append(opts, release.WithBaseURL(u.githubBase))
		}
		u.backend = release.NewGitHub(src.Owner, src.Repo, opts...)
	case src.Backend.IsDepot():
		if u.depotBase != "" {
			opts = append(opts, release.WithBaseURL(u.depotBase))
		}
		u.backend = release.NewDepot(src.Owner, u.sourceApp(), opts...)
	default:
		return nil, fmt.Errorf("unsupported release backend '%s'", src.Backend)
	}
	return u.backend, nil
}

// ResolveTarget resolves the release the request points at: the latest
// stable release, or the exact tagged release when the request names one.
func (u *Updater) ResolveTarget(ctx context.Context) (*release.Release, error) {
	b, err := u.ensureBackend()
	if err != nil {
		return nil, err
	}
	app := u.sourceApp()
	if u.request.Tag != "" {
		return b.ByTag(ctx, app, u.request.Tag)
	}
	return b.Latest(ctx, app)
}

// currentVersion parses the installed version recorded in the receipt.
func (u *Updater) currentVersion() (*version.Version, error) {
	return version.Parse(u.rcpt.Version)
}

// updateNeeded applies the decision rule: an explicit tag is wanted whenever
// it differs from the installed version, a resolved latest only when it is
// strictly newer.
func (u *Updater) updateNeeded(current *version.Version, target *release.Release) bool {
	if u.request.Tag != "" {
		return !target.Version.Equal(current)
	}
	return target.Version.GreaterThan(current)
}

// CheckResult pairs the installed version with the resolved target release.
type CheckResult struct {
	Current      *version.Version
	Target       *release.Release
	UpdateNeeded bool
}

// Check resolves the target release and reports whether Run would install it.
func (u *Updater) Check(ctx context.Context) (*CheckResult, error) {
	if err := u.ensureReceipt(); err != nil {
		return nil, err
	}
	current, err := u.currentVersion()
	if err != nil {
		return nil, err
	}
	target, err := u.ResolveTarget(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		Current:      current,
		Target:       target,
		UpdateNeeded: u.updateNeeded(current, target),
	}, nil
}

// CheckSync is Check without suspension points.
func (u *Updater) CheckSync() (*CheckResult, error) {
	return u.Check(context.Background())
}

// IsUpdateNeeded reports whether running Run would install something.
func (u *Updater) IsUpdateNeeded(ctx context.Context) (bool, error) {
	res, err := u.Check(ctx)
	if err != nil {
		return false, err
	}
	return res.UpdateNeeded, nil
}

// IsUpdateNeededSync is IsUpdateNeeded without suspension points.
func (u *Updater) IsUpdateNeededSync() (bool, error) {
	return u.IsUpdateNeeded(context.Background())
}

// Run checks for an update and applies it. It returns (nil, nil) when the
// install is already at the requested version and the result of the install
// otherwise. Installs made by a package manager are refused.
func (u *Updater) Run(ctx context.Context) (*UpdateResult, error) {
	if err := u.ensureReceipt(); err != nil {
		return nil, err
	}
	if !u.rcpt.InstallMethod.SelfUpdatable() {
		return nil, fmt.Errorf("%w: %s was installed via %s, update it there instead",
			ErrUnsupportedInstall, u.app, u.rcpt.InstallMethod)
	}
	current, err := u.currentVersion()
	if err != nil {
		return nil, err
	}
	target, err := u.ResolveTarget(ctx)
	if err != nil {
		return nil, err
	}
	if !u.updateNeeded(current, target) {
		u.logger.Debug("already up to date", "app", u.app, "version", current)
		return nil, nil
	}
	return u.install(ctx, current, target)
}

// RunSync is Run without suspension points.
func (u *Updater) RunSync() (*UpdateResult, error) {
	return u.Run(context.Background())
}
