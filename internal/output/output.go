// Package output handles formatting results in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		return enc.Encode(v)
	default:
		// Text format - assume v implements fmt.Stringer or use default
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// CheckReport is the result of an update check.
type CheckReport struct {
	App          string `json:"app" yaml:"app"`
	Installed    string `json:"installed" yaml:"installed"`
	Available    string `json:"available" yaml:"available"`
	Tag          string `json:"tag" yaml:"tag"`
	UpdateNeeded bool   `json:"update_needed" yaml:"update_needed"`
}

func (r CheckReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: installed %s, available %s (%s)", r.App, r.Installed, r.Available, r.Tag)
	if r.UpdateNeeded {
		b.WriteString("\nupdate available")
	} else {
		b.WriteString("\nup to date")
	}
	return b.String()
}

// UpdateReport is the result of an applied (or skipped) update.
type UpdateReport struct {
	App           string `json:"app" yaml:"app"`
	OldVersion    string `json:"old_version" yaml:"old_version"`
	NewVersion    string `json:"new_version,omitempty" yaml:"new_version,omitempty"`
	Tag           string `json:"tag,omitempty" yaml:"tag,omitempty"`
	InstallPrefix string `json:"install_prefix,omitempty" yaml:"install_prefix,omitempty"`
	Updated       bool   `json:"updated" yaml:"updated"`
}

func (r UpdateReport) String() string {
	if !r.Updated {
		return fmt.Sprintf("%s is up to date (%s)", r.App, r.OldVersion)
	}
	return fmt.Sprintf("%s updated: %s -> %s (%s) in %s",
		r.App, r.OldVersion, r.NewVersion, r.Tag, r.InstallPrefix)
}
