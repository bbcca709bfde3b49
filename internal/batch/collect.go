package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher selects files by slash-separated doublestar patterns evaluated
// against paths relative to the walked root.
type Matcher struct {
	Include []string
	Exclude []string
}

// NewMatcher validates patterns; empty lists fall back to the defaults.
func NewMatcher(include, exclude []string) (Matcher, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return Matcher{}, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return Matcher{Include: include, Exclude: exclude}, nil
}

// Match reports whether rel is included and not excluded.
func (m Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(m.Include, rel) && !matchAny(m.Exclude, rel)
}

// Excluded reports whether rel hits an exclude pattern. Directories are
// tested with a trailing slash as well so "dir/**" prunes dir itself.
func (m Matcher) Excluded(rel string, dir bool) bool {
	rel = filepath.ToSlash(rel)
	if matchAny(m.Exclude, rel) {
		return true
	}
	return dir && matchAny(m.Exclude, rel+"/")
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Collect expands paths into a sorted, de-duplicated file list. Explicit
// file arguments are always kept; directories are walked through m.
func Collect(paths []string, m Matcher) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}
			if d.IsDir() {
				if m.Excluded(rel, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if m.Match(rel) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
