// Package types provides type-safe constants for the updater.
//
// This package centralizes the enumerated values shared between the install
// receipt, the release backends, and the CLI, replacing magic strings with
// typed constants that provide compile-time safety and validation methods.
package types

import (
	"fmt"
	"strings"
)

// BackendKind identifies which release-host variant serves an app's updates.
type BackendKind string

const (
	// BackendGitHub indicates releases hosted on GitHub Releases.
	BackendGitHub BackendKind = "github"
	// BackendDepot indicates releases hosted on a first-party release depot.
	BackendDepot BackendKind = "depot"
)

// AllBackendKinds returns all valid backend kinds.
func AllBackendKinds() []BackendKind {
	return []BackendKind{BackendGitHub, BackendDepot}
}

// Validate checks if the BackendKind is a valid value.
func (b BackendKind) Validate() error {
	switch b {
	case BackendGitHub, BackendDepot:
		return nil
	case "":
		return fmt.Errorf("release backend is required")
	default:
		return fmt.Errorf("invalid release backend '%s' (must be github or depot)", b)
	}
}

// String returns the string representation of the BackendKind.
func (b BackendKind) String() string {
	return string(b)
}

// IsGitHub returns true if the backend is GitHub Releases.
func (b BackendKind) IsGitHub() bool {
	return b == BackendGitHub
}

// IsDepot returns true if the backend is a first-party depot.
func (b BackendKind) IsDepot() bool {
	return b == BackendDepot
}

// ParseBackendKind parses a string into a BackendKind.
// Returns an error if the string is not a valid backend kind.
func ParseBackendKind(s string) (BackendKind, error) {
	b := BackendKind(strings.ToLower(s))
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b, nil
}

// InstallMethod records how an app was installed. Installer-script methods
// can be self-updated; package-manager methods must be updated through the
// package manager that owns them.
type InstallMethod string

const (
	// InstallMethodShell indicates installation via a shell installer script.
	InstallMethodShell InstallMethod = "shell"
	// InstallMethodPowershell indicates installation via a PowerShell installer script.
	InstallMethodPowershell InstallMethod = "powershell"
	// InstallMethodHomebrew indicates installation via Homebrew.
	InstallMethodHomebrew InstallMethod = "homebrew"
	// InstallMethodNpm indicates installation via npm.
	InstallMethodNpm InstallMethod = "npm"
	// InstallMethodMSI indicates installation via a Windows MSI package.
	InstallMethodMSI InstallMethod = "msi"
	// InstallMethodUnknown indicates the install method was not recorded.
	InstallMethodUnknown InstallMethod = "unknown"
)

// AllInstallMethods returns all valid install methods.
func AllInstallMethods() []InstallMethod {
	return []InstallMethod{
		InstallMethodShell,
		InstallMethodPowershell,
		InstallMethodHomebrew,
		InstallMethodNpm,
		InstallMethodMSI,
		InstallMethodUnknown,
	}
}

// Validate checks if the InstallMethod is a valid value.
// An empty method is valid; older installers did not record one.
func (m InstallMethod) Validate() error {
	switch m {
	case InstallMethodShell, InstallMethodPowershell, InstallMethodHomebrew,
		InstallMethodNpm, InstallMethodMSI, InstallMethodUnknown, "":
		return nil
	default:
		return fmt.Errorf("invalid install method '%s'", m)
	}
}

// String returns the string representation of the InstallMethod.
func (m InstallMethod) String() string {
	if m == "" {
		return string(InstallMethodUnknown)
	}
	return string(m)
}

// SelfUpdatable returns true if installs made this way can be replaced by
// running a fetched installer. Package-manager installs are owned by the
// package manager and must not be overwritten underneath it.
func (m InstallMethod) SelfUpdatable() bool {
	switch m {
	case InstallMethodHomebrew, InstallMethodNpm, InstallMethodMSI:
		return false
	default:
		return true
	}
}

// ParseInstallMethod parses a string into an InstallMethod.
// Returns an error if the string is not a valid install method.
func ParseInstallMethod(s string) (InstallMethod, error) {
	m := InstallMethod(strings.ToLower(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}
