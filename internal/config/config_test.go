package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqtrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
requirements: reqs.csv
xml_dir: ../build/xml
implementation_patterns: ["cl_*c.xml"]
exclude: ["*_8h.xml"]
format: md
outputs:
  hover: hover.txt
  matrix: matrix.toon
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "reqs.csv", cfg.Requirements)
	assert.Equal(t, "../build/xml", cfg.XMLDir)
	assert.Equal(t, []string{"cl_*c.xml"}, cfg.ImplementationPatterns)
	assert.Empty(t, cfg.TestPatterns)
	assert.Equal(t, []string{"*_8h.xml"}, cfg.Exclude)
	assert.Equal(t, "md", cfg.Format)
	assert.Equal(t, "hover.txt", cfg.Outputs.Hover)
	assert.Equal(t, "matrix.toon", cfg.Outputs.Matrix)
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Config{}, *cfg)
}

func TestLoadUnknownKey(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "requirments: typo.csv\n"))
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load("")
	assert.Error(t, err)

	_, err = Load("/nonexistent/path/reqtrace.yaml")
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default("/base")
	assert.Equal(t, filepath.Join("/base", "implementation_requirements.csv"), cfg.Requirements)
	assert.Equal(t, filepath.Join("/base", "_generated"), cfg.OutputDir)
	assert.Equal(t, []string{"cl_*c.xml", "clm_*c.xml", "cls_*c.xml"}, cfg.ImplementationPatterns)
	assert.Equal(t, []string{"test_*.xml"}, cfg.TestPatterns)
	assert.Equal(t, "rst", cfg.Format)
	assert.Empty(t, cfg.XMLDir)
	assert.Empty(t, cfg.Outputs.Matrix)

	// the package defaults are not shared with the returned value
	cfg.ImplementationPatterns[0] = "changed"
	assert.Equal(t, "cl_*c.xml", DefaultImplementationPatterns[0])
}

func TestMergeWithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{
		XMLDir:  "xml",
		Format:  "md",
		Outputs: Outputs{Location: "trace.md"},
	}
	merged := cfg.MergeWithDefaults(Default("/base"))

	assert.Equal(t, "xml", merged.XMLDir)
	assert.Equal(t, "md", merged.Format)
	assert.Equal(t, "trace.md", merged.Outputs.Location)
	assert.Equal(t, "requirement_list_report.md", merged.Outputs.RequirementList)
	assert.Equal(t, "testcase_report.md", merged.Outputs.TestCaseList)
	assert.Equal(t, "specification_report.md", merged.Outputs.Specification)
	assert.Equal(t, "vscode_hover.txt", merged.Outputs.Hover)
	assert.Equal(t, filepath.Join("/base", "implementation_requirements.csv"), merged.Requirements)

	// the receiver is left untouched
	assert.Empty(t, cfg.Requirements)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Requirements: "reqs.csv",
		XMLDir:       "/abs/xml",
		OutputDir:    "out",
		Outputs: Outputs{
			RequirementList: "list.rst",
			Hover:           "/elsewhere/hover.txt",
		},
	}
	cfg.Resolve("/base")

	assert.Equal(t, filepath.Join("/base", "reqs.csv"), cfg.Requirements)
	assert.Equal(t, "/abs/xml", cfg.XMLDir)
	assert.Equal(t, filepath.Join("/base", "out"), cfg.OutputDir)
	assert.Equal(t, filepath.Join("/base", "out", "list.rst"), cfg.Outputs.RequirementList)
	assert.Equal(t, "/elsewhere/hover.txt", cfg.Outputs.Hover)
	assert.Empty(t, cfg.Outputs.Matrix)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		c := Config{XMLDir: "xml"}
		return c.MergeWithDefaults(Default("/base"))
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing xml dir", func(c *Config) { c.XMLDir = "" }, "xml_dir"},
		{"missing requirements", func(c *Config) { c.Requirements = "" }, "requirements"},
		{"unknown format", func(c *Config) { c.Format = "pdf" }, "format"},
		{"empty pattern", func(c *Config) { c.TestPatterns = []string{""} }, "test_patterns[0]"},
		{"no patterns", func(c *Config) { c.ImplementationPatterns = nil }, "implementation_patterns"},
		{"empty exclude entry", func(c *Config) { c.Exclude = []string{"ok", ""} }, "exclude[1]"},
		{"missing hover", func(c *Config) { c.Outputs.Hover = "" }, "outputs.hover"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *Error
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}
