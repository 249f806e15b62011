package release

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Target identifies the platform an installer must support.
type Target struct {
	OS   string
	Arch string
	Libc string // "musl" on musl-based linux, otherwise empty
}

// CurrentTarget returns the target for the running process.
func CurrentTarget() Target {
	t := Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if t.OS == "linux" {
		t.Libc = detectLibc()
	}
	return t
}

// detectLibc reports "musl" when the musl dynamic loader is present.
func detectLibc() string {
	matches, err := filepath.Glob("/lib/ld-musl-*")
	if err == nil && len(matches) > 0 {
		return "musl"
	}
	return ""
}

// Candidates returns the target identifiers an installer asset may be named
// for, most specific first.
func (t Target) Candidates() []string {
	var out []string
	if t.Libc != "" {
		out = append(out, fmt.Sprintf("%s-%s-%s", t.OS, t.Arch, t.Libc))
	}
	out = append(out, fmt.Sprintf("%s-%s", t.OS, t.Arch), t.OS)
	return out
}

// InstallerExt returns the installer script extension for the target OS.
func (t Target) InstallerExt() string {
	if t.OS == "windows" {
		return ".ps1"
	}
	return ".sh"
}

// SelectInstaller picks the installer asset for app on the target: a
// target-specific "<app>-<target>-installer" script if one exists, else the
// generic "<app>-installer" script. No match is ErrNoMatchingAsset.
func SelectInstaller(app string, t Target, assets []Asset) (*Asset, error) {
	ext := t.InstallerExt()

	byName := make(map[string]*Asset, len(assets))
	for i := range assets {
		byName[assets[i].Name] = &assets[i]
	}

	for _, cand := range t.Candidates() {
		if a, ok := byName[fmt.Sprintf("%s-%s-installer%s", app, cand, ext)]; ok {
			return a, nil
		}
	}
	if a, ok := byName[fmt.Sprintf("%s-installer%s", app, ext)]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w for %s on %s/%s", ErrNoMatchingAsset, app, t.OS, t.Arch)
}

// hasInstaller reports whether any asset is an installer script for app,
// for any platform. Used when judging whether a release is installable at
// all, before platform selection.
func hasInstaller(app string, assets []Asset) bool {
	for _, a := range assets {
		for _, ext := range []string{".sh", ".ps1"} {
			if a.Name == app+"-installer"+ext {
				return true
			}
			if matched, _ := filepath.Match(app+"-*-installer"+ext, a.Name); matched {
				return true
			}
		}
	}
	return false
}
