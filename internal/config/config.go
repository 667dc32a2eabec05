// Package config provides configuration loading and validation for the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding a config file path, used
// when no --config flag is given.
const EnvPath = "REQTRACE_CONFIG"

// Default file names, relative to the base directory or the output directory.
const (
	DefaultRequirementsFile = "implementation_requirements.csv"
	DefaultOutputDir        = "_generated"
	DefaultLocationFile     = "req_testlocation_report.rst"
	DefaultRequirementFile  = "requirement_list_report.rst"
	DefaultTestCaseFile     = "testcase_report.rst"
	DefaultSpecFile         = "specification_report.rst"
	DefaultHoverFile        = "vscode_hover.txt"
	DefaultFormat           = "rst"
)

var (
	DefaultImplementationPatterns = []string{"cl_*c.xml", "clm_*c.xml", "cls_*c.xml"}
	DefaultTestPatterns           = []string{"test_*.xml"}
)

// Outputs names the generated files. Relative names are resolved against
// Config.OutputDir.
type Outputs struct {
	RequirementList string `yaml:"requirement_list,omitempty" validate:"required"`
	TestCaseList    string `yaml:"testcase_list,omitempty" validate:"required"`
	Location        string `yaml:"location,omitempty" validate:"required"`
	Specification   string `yaml:"specification,omitempty" validate:"required"`
	Hover           string `yaml:"hover,omitempty" validate:"required"`
	Matrix          string `yaml:"matrix,omitempty"` // TOON matrix, disabled when empty
}

// Config is the resolved input of one analysis run. It can be loaded from
// a YAML file; missing values are filled from Default and CLI flags.
type Config struct {
	Requirements           string   `yaml:"requirements,omitempty" validate:"required"`
	XMLDir                 string   `yaml:"xml_dir,omitempty" validate:"required"`
	ImplementationPatterns []string `yaml:"implementation_patterns,omitempty" validate:"required,dive,required"`
	TestPatterns           []string `yaml:"test_patterns,omitempty" validate:"required,dive,required"`
	Exclude                []string `yaml:"exclude,omitempty" validate:"dive,required"`
	Format                 string   `yaml:"format,omitempty" validate:"required,oneof=rst md html"`
	OutputDir              string   `yaml:"output_dir,omitempty" validate:"required"`
	Outputs                Outputs  `yaml:"outputs,omitempty"`
}

// Error reports an unreadable or invalid configuration.
type Error struct {
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := "config error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in %q", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Default returns the configuration used when nothing else is given. Every
// path is derived from baseDir; the XML directory has no default.
func Default(baseDir string) Config {
	return Config{
		Requirements:           filepath.Join(baseDir, DefaultRequirementsFile),
		ImplementationPatterns: append([]string(nil), DefaultImplementationPatterns...),
		TestPatterns:           append([]string(nil), DefaultTestPatterns...),
		Format:                 DefaultFormat,
		OutputDir:              filepath.Join(baseDir, DefaultOutputDir),
		Outputs: Outputs{
			RequirementList: DefaultRequirementFile,
			TestCaseList:    DefaultTestCaseFile,
			Location:        DefaultLocationFile,
			Specification:   DefaultSpecFile,
			Hover:           DefaultHoverFile,
		},
	}
}

// Load reads a YAML configuration file. Unknown keys are rejected. An empty
// file yields an empty Config.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, &Error{Message: "config path is empty"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Message: "failed to read config file " + path, Cause: err}
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Message: "failed to parse config YAML " + path, Cause: err}
	}
	return &cfg, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Report file names taken from defaults get the extension of the
// merged format; the hover file keeps its own.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Requirements == "" {
		result.Requirements = defaults.Requirements
	}
	if result.XMLDir == "" {
		result.XMLDir = defaults.XMLDir
	}
	if len(result.ImplementationPatterns) == 0 {
		result.ImplementationPatterns = defaults.ImplementationPatterns
	}
	if len(result.TestPatterns) == 0 {
		result.TestPatterns = defaults.TestPatterns
	}
	if len(result.Exclude) == 0 {
		result.Exclude = defaults.Exclude
	}
	if result.Format == "" {
		result.Format = defaults.Format
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}

	out, def := &result.Outputs, defaults.Outputs
	if out.RequirementList == "" {
		out.RequirementList = withExt(def.RequirementList, result.Format)
	}
	if out.TestCaseList == "" {
		out.TestCaseList = withExt(def.TestCaseList, result.Format)
	}
	if out.Location == "" {
		out.Location = withExt(def.Location, result.Format)
	}
	if out.Specification == "" {
		out.Specification = withExt(def.Specification, result.Format)
	}
	if out.Hover == "" {
		out.Hover = def.Hover
	}
	if out.Matrix == "" {
		out.Matrix = def.Matrix
	}

	return result
}

func withExt(name, format string) string {
	if name == "" || format == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + format
}

// Resolve makes every path absolute: input paths and the output directory
// against baseDir, output file names against the output directory.
func (c *Config) Resolve(baseDir string) {
	c.Requirements = resolve(baseDir, c.Requirements)
	c.XMLDir = resolve(baseDir, c.XMLDir)
	c.OutputDir = resolve(baseDir, c.OutputDir)

	for _, p := range []*string{
		&c.Outputs.RequirementList,
		&c.Outputs.TestCaseList,
		&c.Outputs.Location,
		&c.Outputs.Specification,
		&c.Outputs.Hover,
		&c.Outputs.Matrix,
	} {
		*p = resolve(c.OutputDir, *p)
	}
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Validate checks that every required value is present and the format is
// supported. The first violation is reported as an *Error naming the YAML
// key.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Message: "validation failed", Cause: err}
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return &Error{Field: field, Message: "value is required"}
	case "oneof":
		return &Error{Field: field, Message: fmt.Sprintf("%q is not one of %s", fe.Value(), fe.Param())}
	}
	return &Error{Field: field, Message: "failed on " + fe.Tag()}
}
