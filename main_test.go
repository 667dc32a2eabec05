package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/reqtrace/internal/config"
	"github.com/phobologic/reqtrace/internal/validate"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleCatalog = `ID,Description,Specifications
REQ_CL_UDP_01,Parse incoming frames,"SPEC_UDP_1,SPEC_UDP_2"
REQ_CL_UDP_02,Reject short frames,SPEC_UDP_1
`

const sampleImpl = `<?xml version='1.0' encoding='UTF-8'?>
<doxygen><compounddef kind="file"><sectiondef kind="func">
<memberdef kind="function" id="a1">
<name>cl_udp_parse</name>
<detaileddescription>
<para>Parse a frame. </para>
<para><xrefsect id="req_1"><xreftitle>Requirement</xreftitle><xrefdescription><para>REQ_CL_UDP_01</para>
<para>REQ_CL_UDP_02</para>
</xrefdescription></xrefsect></para>
</detaileddescription>
<location file="src/cl_udp.c" line="42"/>
</memberdef>
</sectiondef></compounddef></doxygen>
`

const sampleTest = `<?xml version='1.0' encoding='UTF-8'?>
<doxygen><compounddef kind="file"><sectiondef kind="func">
<memberdef kind="function" id="t1">
<name>TEST_F</name>
<param><type>UdpTest</type></param>
<param><type>ParsesFrame</type></param>
<detaileddescription>
<para><xrefsect id="req_2"><xreftitle>Requirement</xreftitle><xrefdescription><para>REQ_CL_UDP_01</para>
</xrefdescription></xrefsect></para>
</detaileddescription>
<location file="test/test_udp.cpp" line="12"/>
</memberdef>
</sectiondef></compounddef></doxygen>
`

// createSampleProject lays out a catalog next to a Doxygen export directory.
func createSampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "implementation_requirements.csv", sampleCatalog)
	writeTestFile(t, dir, "xml/cl__udp_8c.xml", sampleImpl)
	writeTestFile(t, dir, "xml/test__udp_8cpp.xml", sampleTest)
	writeTestFile(t, dir, "xml/other_8c.xml", strings.Replace(sampleImpl, `line="42"`, `line="99"`, 1))
	return dir
}

func sampleArgs(dir string, extra ...string) []string {
	args := []string{
		"--req", filepath.Join(dir, "implementation_requirements.csv"),
		"--output-dir", filepath.Join(dir, "out"),
	}
	args = append(args, extra...)
	return append(args, filepath.Join(dir, "xml"))
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	for _, name := range []string{
		"requirement_list_report.rst",
		"testcase_report.rst",
		"req_testlocation_report.rst",
		"specification_report.rst",
		"vscode_hover.txt",
	} {
		assert.FileExists(t, filepath.Join(dir, "out", name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "req_testlocation_report.rst"))
	require.NoError(t, err)
	report := string(data)
	assert.Contains(t, report, "2 requirements in total, out of which 1 are not yet mapped to any test case.")
	assert.Contains(t, report, "Implemented in 1 functions, and 1 of the test cases have requirement tags.")
	assert.Contains(t, report, "- Test case **ParsesFrame** UdpTest test/test_udp.cpp 12")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "msg=\"wrote report\"")
}

func TestRunMarkdownAndMatrix(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	matrix := filepath.Join(dir, "trace.toon")

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir, "--format", "md", "--matrix", matrix), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.FileExists(t, filepath.Join(dir, "out", "req_testlocation_report.md"))
	assert.FileExists(t, filepath.Join(dir, "out", "vscode_hover.txt"))

	data, err := os.ReadFile(matrix)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  REQ_CL_UDP_01,true,1,1,SPEC_UDP_1 SPEC_UDP_2\n")
	assert.Contains(t, string(data), "  REQ_CL_UDP_02,false,1,0,SPEC_UDP_1\n")
}

func TestRunPatternFlags(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir, "--impl-pattern", "*.xml", "--exclude", "test_*"), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	// other_8c.xml now matches too and declares the same name elsewhere
	assert.Contains(t, stderr.String(), "msg=\"locations share a name\" name=cl_udp_parse")
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	cfgPath := filepath.Join(dir, "reqtrace.yaml")
	writeTestFile(t, dir, "reqtrace.yaml", `xml_dir: xml
format: html
outputs:
  hover: hover.txt
`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", cfgPath}, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	// relative paths and defaults resolve against the config's directory
	assert.FileExists(t, filepath.Join(dir, "_generated", "hover.txt"))
	data, err := os.ReadFile(filepath.Join(dir, "_generated", "requirement_list_report.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestRunConfigFromEnv(t *testing.T) {
	dir := createSampleProject(t)
	writeTestFile(t, dir, "conf/reqtrace.yaml", `requirements: ../implementation_requirements.csv
xml_dir: ../xml
output_dir: ../generated
`)
	t.Setenv(config.EnvPath, filepath.Join(dir, "conf", "reqtrace.yaml"))

	var stdout, stderr bytes.Buffer
	err := run(nil, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())
	assert.FileExists(t, filepath.Join(dir, "generated", "specification_report.rst"))
}

func TestRunFlagOverridesConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	cfgPath := filepath.Join(dir, "reqtrace.yaml")
	writeTestFile(t, dir, "reqtrace.yaml", "xml_dir: missing\nformat: html\n")

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir, "--config", cfgPath, "--format", "md"), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())
	assert.FileExists(t, filepath.Join(dir, "out", "testcase_report.md"))
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-V"}, &stdout, &stderr))
	assert.Equal(t, "reqtrace dev\n", stdout.String())
}

func TestRunMissingXMLDir(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--req", filepath.Join(t.TempDir(), "r.csv")}, &stdout, &stderr)
	var ce *config.Error
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "xml_dir", ce.Field)
}

func TestRunUnknownFormat(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir, "--format", "pdf"), &stdout, &stderr)
	var ce *config.Error
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "format", ce.Field)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestRunUnknownLogLevel(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--log-level", "loud", t.TempDir()}, &stdout, &stderr)
	assert.EqualError(t, err, `unknown log level "loud"`)
}

func TestRunTooManyArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"a", "b"}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestRunDuplicateRequirement(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "implementation_requirements.csv", sampleCatalog+"REQ_CL_UDP_02,Again,\n")

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir), &stdout, &stderr)
	var dup *validate.DuplicateRequirementError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "REQ_CL_UDP_02", dup.ID)
	assert.Equal(t, 2, dup.Count)
}

func TestRunMalformedExport(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "xml/cl__broken_8c.xml", "<doxygen><compounddef>")

	var stdout, stderr bytes.Buffer
	err := run(sampleArgs(dir), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cl__broken_8c.xml")
}
