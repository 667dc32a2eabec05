// reqtrace traces requirement IDs from a CSV catalog through Doxygen-annotated
// implementation and test code, and writes the traceability reports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/phobologic/reqtrace/internal/config"
	"github.com/phobologic/reqtrace/internal/logging"
	"github.com/phobologic/reqtrace/internal/pipeline"
)

var version = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(context.Background())
}

type rootOptions struct {
	configPath   string
	req          string
	lrep         string
	rrep         string
	trep         string
	srep         string
	hover        string
	matrix       string
	format       string
	outputDir    string
	implPatterns []string
	testPatterns []string
	exclude      []string
	logLevel     string
	showVersion  bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var o rootOptions

	cmd := &cobra.Command{
		Use:   "reqtrace [xml-dir]",
		Short: "Generate requirement traceability reports from a Doxygen XML export",
		Long: `Reads the requirement catalog (CSV: ID, Description, Specifications) and the
Doxygen XML export of the implementation and test code, then writes the
specification map, hover definitions, requirement list, test case list and
requirement location report.

Configuration can be loaded from a YAML file using --config or the
` + config.EnvPath + ` environment variable. Relative paths in the file are
resolved against the file's directory; command-line flags override it.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.showVersion {
				_, _ = fmt.Fprintf(stdout, "reqtrace %s\n", version)
				return nil
			}
			return runAnalysis(cmd, args, &o, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "path to a YAML config file (defaults to $"+config.EnvPath+")")
	f.StringVar(&o.req, "req", "", "path to the requirements CSV file (default "+config.DefaultRequirementsFile+" next to the config)")
	f.StringVar(&o.lrep, "lrep", "", "path to the requirement location report")
	f.StringVar(&o.rrep, "rrep", "", "path to the requirement list report")
	f.StringVar(&o.trep, "trep", "", "path to the test case list report")
	f.StringVar(&o.srep, "srep", "", "path to the specification report")
	f.StringVar(&o.hover, "hover", "", "path to the hover definition file")
	f.StringVar(&o.matrix, "matrix", "", "path to an optional TOON traceability matrix")
	f.StringVar(&o.outputDir, "output-dir", "", "directory for reports given by name only (default "+config.DefaultOutputDir+")")
	f.StringVarP(&o.format, "format", "f", "", "report format: rst, md or html (default "+config.DefaultFormat+")")
	f.StringSliceVar(&o.implPatterns, "impl-pattern", nil, "glob for implementation export files (repeatable)")
	f.StringSliceVar(&o.testPatterns, "test-pattern", nil, "glob for test export files (repeatable)")
	f.StringSliceVar(&o.exclude, "exclude", nil, "gitignore-style pattern of export files to skip (repeatable)")
	f.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (defaults to $"+logging.EnvLevel+", else info)")
	f.BoolVarP(&o.showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newStatsCommand(stdout, stderr))
	return cmd
}

func runAnalysis(cmd *cobra.Command, args []string, o *rootOptions, stderr io.Writer) error {
	levelName := o.logLevel
	if !cmd.Flags().Changed("log-level") {
		levelName = os.Getenv(logging.EnvLevel)
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, level)

	cfg, err := resolveConfig(cmd, args, o)
	if err != nil {
		return err
	}

	_, err = pipeline.Run(cfg, logger)
	return err
}

// resolveConfig overlays the flags the user set on the config file, then
// fills whatever is still empty from the defaults.
func resolveConfig(cmd *cobra.Command, args []string, o *rootOptions) (config.Config, error) {
	baseDir, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving working directory: %w", err)
	}

	path := o.configPath
	if !cmd.Flags().Changed("config") {
		path = os.Getenv(config.EnvPath)
	}

	var cfg config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
		abs, err := filepath.Abs(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("resolving config path: %w", err)
		}
		baseDir = filepath.Dir(abs)
	}

	if err := applyFlags(cmd, args, o, &cfg); err != nil {
		return config.Config{}, err
	}

	cfg = cfg.MergeWithDefaults(config.Default(baseDir))
	cfg.Resolve(baseDir)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyFlags copies the flags that were explicitly set into cfg. Paths given
// on the command line are relative to the working directory.
func applyFlags(cmd *cobra.Command, args []string, o *rootOptions, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	paths := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"req", o.req, &cfg.Requirements},
		{"lrep", o.lrep, &cfg.Outputs.Location},
		{"rrep", o.rrep, &cfg.Outputs.RequirementList},
		{"trep", o.trep, &cfg.Outputs.TestCaseList},
		{"srep", o.srep, &cfg.Outputs.Specification},
		{"hover", o.hover, &cfg.Outputs.Hover},
		{"matrix", o.matrix, &cfg.Outputs.Matrix},
		{"output-dir", o.outputDir, &cfg.OutputDir},
	}
	for _, p := range paths {
		if !changed(p.flag) || p.value == "" {
			continue
		}
		abs, err := filepath.Abs(p.value)
		if err != nil {
			return fmt.Errorf("resolving --%s: %w", p.flag, err)
		}
		*p.dst = abs
	}

	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving xml directory: %w", err)
		}
		cfg.XMLDir = abs
	}

	if changed("format") {
		cfg.Format = o.format
	}
	if changed("impl-pattern") {
		cfg.ImplementationPatterns = o.implPatterns
	}
	if changed("test-pattern") {
		cfg.TestPatterns = o.testPatterns
	}
	if changed("exclude") {
		cfg.Exclude = o.exclude
	}
	return nil
}
