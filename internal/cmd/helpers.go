package cmd

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/tdameron/freshen/internal/config"
	"github.com/tdameron/freshen/internal/updater"
)

// resolveAppName returns the app to operate on: the --app flag when given,
// otherwise the name derived from the executable.
func resolveAppName() (string, error) {
	if appFlag != "" {
		return appFlag, nil
	}
	return updater.AppNameFromExecutable()
}

// newLogger builds the engine logger honoring the verbosity flags.
func newLogger() *log.Logger {
	logger := log.New(os.Stderr)
	switch {
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	case verbose:
		logger.SetLevel(log.DebugLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// buildUpdater wires config, environment, and flags into an Updater.
func buildUpdater(req updater.Request, silenceInstaller bool) (*updater.Updater, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}

	token := cfg.GitHubToken
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	opts := updater.Options{
		HTTPClient:    cfg.HTTPClient(),
		Token:         token,
		GitHubBaseURL: cfg.GitHubAPIBase,
		DepotBaseURL:  cfg.DepotAPIBase,
		UserAgent:     "freshen/" + buildVersion,
		Logger:        newLogger(),
	}
	if !silenceInstaller && cfg.ShowInstallerOutput() && !quiet {
		opts.InstallerStdout = os.Stdout
		opts.InstallerStderr = os.Stderr
	}

	app, err := resolveAppName()
	if err != nil {
		return nil, err
	}
	return updater.New(app, req, opts), nil
}
