// Package pipeline runs one complete requirement analysis: it reads the
// catalog and the Doxygen export and writes every report.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/phobologic/reqtrace/internal/catalog"
	"github.com/phobologic/reqtrace/internal/config"
	"github.com/phobologic/reqtrace/internal/discover"
	"github.com/phobologic/reqtrace/internal/doxygen"
	"github.com/phobologic/reqtrace/internal/model"
	"github.com/phobologic/reqtrace/internal/report"
	"github.com/phobologic/reqtrace/internal/toon"
	"github.com/phobologic/reqtrace/internal/validate"
	"github.com/phobologic/reqtrace/internal/xref"
)

// Summary holds the counts of one run.
type Summary struct {
	Requirements    int
	WithoutTests    int
	Implementations int
	TestCases       int
	InvalidTags     int
	Gaps            int
	Collisions      int
	Outputs         []string
}

// Run executes the analysis described by cfg, which must be resolved and
// valid. The order is fixed: the catalog reports are written before the
// catalog is validated, and the export is only read once the catalog has
// no duplicates. Gaps and name collisions are logged, not returned.
func Run(cfg config.Config, logger *slog.Logger) (*Summary, error) {
	format := report.Format(cfg.Format)
	out := cfg.Outputs

	logger.Info("resolved paths",
		"requirements", cfg.Requirements,
		"xml_dir", cfg.XMLDir,
		"requirement_list", out.RequirementList,
		"testcase_list", out.TestCaseList,
		"location", out.Location,
		"specification", out.Specification,
		"hover", out.Hover,
	)

	reqs, err := catalog.ParseFile(cfg.Requirements)
	if err != nil {
		return nil, fmt.Errorf("reading requirements: %w", err)
	}
	logger.Debug("parsed catalog", "requirements", len(reqs))

	s := &Summary{Requirements: len(reqs)}
	written := func(path string) {
		s.Outputs = append(s.Outputs, path)
		logger.Info("wrote report", "path", path)
	}

	if err := report.Create(out.Specification, format, func(w report.Writer) error {
		return report.SpecificationMap(w, reqs)
	}); err != nil {
		return nil, err
	}
	written(out.Specification)

	if err := report.CreateFile(out.Hover, func(w io.Writer) error {
		return report.HoverDefinitions(w, reqs)
	}); err != nil {
		return nil, err
	}
	written(out.Hover)

	if err := report.Create(out.RequirementList, format, func(w report.Writer) error {
		return report.RequirementList(w, reqs)
	}); err != nil {
		return nil, err
	}
	written(out.RequirementList)

	if err := validate.DetectDuplicates(reqs); err != nil {
		return nil, err
	}
	gaps, err := validate.DescribeGaps(reqs)
	if err != nil {
		return nil, err
	}
	validate.LogGaps(logger, gaps)
	s.Gaps = len(gaps)

	opts := discover.Options{Exclude: cfg.Exclude}
	impl, err := doxygen.ParseFiles(cfg.XMLDir, cfg.ImplementationPatterns, doxygen.Functions, opts)
	if err != nil {
		return nil, fmt.Errorf("extracting implementation locations: %w", err)
	}
	tests, err := doxygen.ParseFiles(cfg.XMLDir, cfg.TestPatterns, doxygen.TestCases, opts)
	if err != nil {
		return nil, fmt.Errorf("extracting test locations: %w", err)
	}
	logger.Debug("extracted locations", "implementations", len(impl), "tests", len(tests))

	if err := report.Create(out.TestCaseList, format, func(w report.Writer) error {
		return report.TestCaseList(w, tests)
	}); err != nil {
		return nil, err
	}
	written(out.TestCaseList)

	trace := xref.Build(reqs, impl, tests)
	logCollisions(logger, trace.Collisions)

	if err := report.Create(out.Location, format, func(w report.Writer) error {
		return report.Traceability(w, trace)
	}); err != nil {
		return nil, err
	}
	written(out.Location)

	if out.Matrix != "" {
		if err := report.CreateFile(out.Matrix, func(w io.Writer) error {
			_, err := io.WriteString(w, toon.Encode(filepath.Base(cfg.Requirements), trace)+"\n")
			return err
		}); err != nil {
			return nil, err
		}
		written(out.Matrix)
	}

	s.WithoutTests = len(trace.WithoutTests)
	s.Implementations = trace.UniqueImplementations
	s.TestCases = trace.UniqueTests
	s.InvalidTags = len(trace.Invalid)
	s.Collisions = len(trace.Collisions)

	logger.Info("analysis complete",
		"requirements", s.Requirements,
		"without_tests", s.WithoutTests,
		"implementations", s.Implementations,
		"test_cases", s.TestCases,
		"invalid_tags", s.InvalidTags,
	)
	return s, nil
}

func logCollisions(logger *slog.Logger, collisions []xref.Collision) {
	for _, c := range collisions {
		logger.Warn("locations share a name", "name", c.Name, "files", collisionFiles(c.Records))
	}
}

func collisionFiles(records []model.Location) []string {
	files := make([]string, 0, len(records))
	for _, r := range records {
		files = append(files, fmt.Sprintf("%s:%d", r.File, r.Line))
	}
	return files
}
