// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// the traceability matrix.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/reqtrace/internal/xref"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Trace into TOON format: one row per catalog
// requirement with its location counts, then one row per invalid tag
// occurrence.
func Encode(name string, t *xref.Trace) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("catalog: %s", encodeValue(name)))

	tested := make(map[string]bool, len(t.WithTests))
	for _, r := range t.WithTests {
		tested[r.ID] = true
	}

	var reqRows [][]string
	for _, r := range t.Requirements {
		reqRows = append(reqRows, []string{
			r.ID,
			fmt.Sprintf("%t", tested[r.ID]),
			fmt.Sprintf("%d", len(t.Implementations[r.ID])),
			fmt.Sprintf("%d", len(t.Tests[r.ID])),
			strings.Join(r.Specifications, " "),
		})
	}
	parts = append(parts, formatTabular("requirements",
		[]string{"id", "tested", "implementations", "tests", "specifications"}, reqRows))

	var invalidRows [][]string
	for _, id := range t.Invalid.IDs() {
		for _, l := range t.Invalid[id] {
			invalidRows = append(invalidRows, []string{
				id,
				l.Name,
				l.File,
				fmt.Sprintf("%d", l.Line),
			})
		}
	}
	parts = append(parts, formatTabular("invalid", []string{"id", "location", "file", "line"}, invalidRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

// encodeCell keeps the literal booleans of the tested column unquoted.
func encodeCell(value string) string {
	if value == "true" || value == "false" {
		return value
	}
	return encodeValue(value)
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
