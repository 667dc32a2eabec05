package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/reqtrace/internal/tokencount"
)

const (
	sentinelStart = "<!-- reqtrace:stats:start -->"
	sentinelEnd   = "<!-- reqtrace:stats:end -->"
)

type statsOptions struct {
	dir      string
	patterns []string
	tokens   []string
	update   string
	dryRun   bool
}

// newStatsCommand implements `reqtrace stats`, which counts test macros in
// the test sources and can write the counts into a documentation file.
func newStatsCommand(stdout, stderr io.Writer) *cobra.Command {
	var o statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count test case and assertion macros in the test sources",
		Long: `Count literal tokens (by default the TEST_F, EXPECT_ and ASSERT_ macros) in
every file under --dir matching --pattern, and print one count per token.

With --update FILE the counts are written to FILE as a table wrapped in
sentinel comments, so the block can be updated in place on subsequent runs
without touching surrounding content. The file is created if it does not
exist.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := tokencount.CountDirectory(cmd.Context(), o.dir, o.patterns, o.tokens)
			if err != nil {
				return fmt.Errorf("counting tokens in %s: %w", o.dir, err)
			}

			if o.update == "" {
				_, _ = fmt.Fprint(stdout, formatCounts(counts, o.tokens))
				return nil
			}

			existing, _ := os.ReadFile(o.update)
			updated := applySection(string(existing), generateSection(counts, o.tokens))

			if o.dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(o.update, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", o.update, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote test statistics to %s\n", o.update)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.dir, "dir", tokencount.DefaultDir, "directory holding the test sources")
	f.StringSliceVar(&o.patterns, "pattern", tokencount.DefaultPatterns, "glob for the files to count, relative to --dir (repeatable)")
	f.StringArrayVar(&o.tokens, "token", tokencount.DefaultTokens, "literal token to count (repeatable)")
	f.StringVar(&o.update, "update", "", "write the counts into this documentation file")
	f.BoolVar(&o.dryRun, "dry-run", false, "with --update, print the updated file instead of writing it")

	return cmd
}

// formatCounts lists the counts in token order, one per line.
func formatCounts(counts tokencount.Counts, tokens []string) string {
	var b strings.Builder
	for _, token := range tokens {
		fmt.Fprintf(&b, "%-12s %d\n", label(token), counts[token])
	}
	return b.String()
}

func label(token string) string {
	return strings.TrimSpace(token)
}

// generateSection returns the sentinel-wrapped statistics table.
func generateSection(counts tokencount.Counts, tokens []string) string {
	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	b.WriteString("| Token | Count |\n")
	b.WriteString("|-------|-------|\n")
	for _, token := range tokens {
		fmt.Fprintf(&b, "| `%s` | %d |\n", label(token), counts[token])
	}
	b.WriteString(sentinelEnd)
	return b.String()
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
