// Package discover finds documentation export files in a directory.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile holds gitignore-style exclusions, read from the root directory
// when present.
const IgnoreFile = ".reqtraceignore"

// Options tunes file discovery.
type Options struct {
	// Exclude lists gitignore-style patterns applied on top of IgnoreFile.
	Exclude []string
}

// Files returns the files under root whose slash-separated relative path
// matches at least one of the glob patterns. Patterns use doublestar syntax,
// so "test_*.xml" only matches at the top level while "**/test_*.xml"
// matches at any depth. Each file is listed once, sorted by path. A
// symlinked root is followed; symlinks below it are not.
func Files(root string, patterns []string, opts Options) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p}
		}
	}
	root, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	gi := loadIgnore(root, opts.Exclude)

	var results []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if matchAny(patterns, rel) {
			results = append(results, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

// PatternError reports a glob pattern that doublestar cannot parse.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q", e.Pattern)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func loadIgnore(root string, extra []string) *ignore.GitIgnore {
	var lines []string
	if data, err := os.ReadFile(filepath.Join(root, IgnoreFile)); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, extra...)
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
