// Package tokencount counts literal tokens in source files, used for the
// test statistics of the documentation.
package tokencount

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/reqtrace/internal/discover"
)

// Default inputs of the stats subcommand.
var (
	DefaultDir      = "test"
	DefaultPatterns = []string{"*.cpp"}
	DefaultTokens   = []string{"TEST_F ", "EXPECT_", "ASSERT_"}
)

// Counts maps each token to its number of occurrences.
type Counts map[string]int

// Add adds every count of other to c.
func (c Counts) Add(other Counts) {
	for token, n := range other {
		c[token] += n
	}
}

// CountFile counts the non-overlapping occurrences of each token in the
// file at path. Every token is present in the result, possibly with zero.
func CountFile(path string, tokens []string) (Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Count(string(data), tokens), nil
}

// Count counts the non-overlapping occurrences of each token in text.
func Count(text string, tokens []string) Counts {
	counts := make(Counts, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		counts[token] += strings.Count(text, token)
	}
	return counts
}

// Files returns the files under dir matching any of patterns, as sorted
// absolute paths. Matching follows discover.Files: hidden entries and
// symlinks below dir are skipped, and a file matched by several patterns is
// listed once.
func Files(dir string, patterns []string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	rels, err := discover.Files(abs, patterns, discover.Options{})
	if err != nil {
		return nil, fmt.Errorf("matching files in %s: %w", abs, err)
	}

	files := make([]string, 0, len(rels))
	for _, rel := range rels {
		files = append(files, filepath.Join(abs, filepath.FromSlash(rel)))
	}
	return files, nil
}

// CountDirectory sums the token counts of every file under dir matching
// patterns. Files are read concurrently; the sum does not depend on the
// order in which they finish.
func CountDirectory(ctx context.Context, dir string, patterns, tokens []string) (Counts, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "count", Path: dir, Err: fmt.Errorf("not a directory")}
	}

	files, err := Files(dir, patterns)
	if err != nil {
		return nil, err
	}

	perFile := make([]Counts, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			counts, err := CountFile(path, tokens)
			if err != nil {
				return fmt.Errorf("counting tokens: %w", err)
			}
			perFile[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := Count("", tokens)
	for _, counts := range perFile {
		total.Add(counts)
	}
	return total, nil
}
