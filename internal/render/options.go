// Package render prints batch results for terminals and tools.
package render

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects the output layout.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatShort  Format = "short"
	FormatJSON   Format = "json"
)

// ParseFormat accepts a --format value.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatPretty:
		return FormatPretty, nil
	case FormatShort:
		return FormatShort, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("invalid --format value %q (expected pretty|short|json)", value)
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to BaseDir when they live below it.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Options configures every format.
type Options struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// ShowSkipped lists files whose checks are disabled.
	ShowSkipped bool
	// IncludeDecorations adds the ordered decoration set to JSON output.
	IncludeDecorations bool
}

func (o Options) displayPath(path string) string {
	switch o.PathMode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		base := o.BaseDir
		if base == "" {
			return filepath.ToSlash(path)
		}
		absBase, err1 := filepath.Abs(base)
		absPath, err2 := filepath.Abs(path)
		if err1 != nil || err2 != nil {
			return filepath.ToSlash(path)
		}
		rel, err := filepath.Rel(absBase, absPath)
		if err != nil {
			return filepath.ToSlash(path)
		}
		if o.PathMode == PathModeAuto && strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(absPath)
		}
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
