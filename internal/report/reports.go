package report

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/phobologic/reqtrace/internal/model"
	"github.com/phobologic/reqtrace/internal/xref"
)

// NoFixture heads test cases that have no fixture name.
const NoFixture = "(no fixture)"

// RequirementList writes one subsection per ID prefix, listing each
// requirement by its number and description.
func RequirementList(w Writer, reqs []model.Requirement) error {
	w.Title("List of requirements")

	byPrefix := make(map[string][]model.Requirement)
	for _, r := range reqs {
		prefix, err := r.IDPrefix()
		if err != nil {
			return err
		}
		byPrefix[prefix] = append(byPrefix[prefix], r)
	}

	for _, prefix := range sortedMapKeys(byPrefix) {
		w.Subheader(prefix)
		group := byPrefix[prefix]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ID < group[j].ID
		})
		for _, r := range group {
			number, err := r.IDNumber()
			if err != nil {
				return err
			}
			w.Bullet(fmt.Sprintf("%s %s", w.Strong(fmt.Sprintf("%02d", number)), r.Description), 0)
		}
	}
	return nil
}

// SpecificationMap writes one subsection per specification, listing the
// requirements that cite it and the other specifications they cite.
func SpecificationMap(w Writer, reqs []model.Requirement) error {
	w.Title("Mapping from specification to requirements")

	for _, spec := range xref.SpecificationIDs(reqs) {
		w.Subheader(spec)
		for _, r := range reqs {
			if !r.Cites(spec) {
				continue
			}
			w.Bullet(requirementSummary(w, r), 0)
			if others := otherSpecifications(r, spec); len(others) > 0 {
				w.Bullet("See also: "+strings.Join(others, ", "), 1)
			}
		}
	}
	return nil
}

func otherSpecifications(r model.Requirement, current string) []string {
	set := make(map[string]struct{})
	for _, s := range r.Specifications {
		if s != current {
			set[s] = struct{}{}
		}
	}
	return sortedMapKeys(set)
}

// TestCaseList writes one subsection per fixture with its test cases and
// the number of requirements each verifies.
func TestCaseList(w Writer, tests []model.Location) error {
	w.Title("List of test cases")
	w.Paragraph("The headers are the fixture names. The number of requirements " +
		"verified by the test case (if any) are given on the same " +
		"line as the test case name.")

	byFixture := make(map[string][]model.Location)
	for _, tc := range tests {
		byFixture[tc.Fixture] = append(byFixture[tc.Fixture], tc)
	}

	for _, fixture := range sortedMapKeys(byFixture) {
		heading := fixture
		if heading == "" {
			heading = NoFixture
		}
		w.Subheader(heading)

		group := byFixture[fixture]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Name < group[j].Name
		})
		for _, tc := range group {
			if n := len(tc.RequirementIDs); n > 0 {
				w.Bullet(fmt.Sprintf("%s %s", tc.Name, w.Strong(fmt.Sprint(n))), 0)
			} else {
				w.Bullet(tc.Name, 0)
			}
		}
	}
	return nil
}

// Traceability writes the requirement details report: statistics, the
// requirements with and without test cases along with every location that
// references them, and the invalid requirement tags.
func Traceability(w Writer, t *xref.Trace) error {
	w.Title("Requirement details")

	total := len(t.WithTests) + len(t.WithoutTests)
	w.Paragraph(fmt.Sprintf("%d requirements in total, out of which %d are not yet mapped to any test case.",
		total, len(t.WithoutTests)))
	w.Paragraph(fmt.Sprintf("Implemented in %d functions, and %d of the test cases have requirement tags.",
		t.UniqueImplementations, t.UniqueTests))

	w.Header("Requirements with test cases")
	for _, r := range t.WithTests {
		writeRequirement(w, r)
		for _, impl := range t.Implementations[r.ID] {
			writeImplementation(w, impl)
		}
		for _, tc := range t.Tests[r.ID] {
			writeTestCase(w, tc)
		}
	}

	w.Header("Requirements not yet mapped to automated tests")
	for _, r := range t.WithoutTests {
		writeRequirement(w, r)
		for _, impl := range t.Implementations[r.ID] {
			writeImplementation(w, impl)
		}
	}

	w.Header("Invalid requirement tags")
	if len(t.Invalid) == 0 {
		w.Paragraph("None found.")
		return nil
	}
	for _, id := range t.Invalid.IDs() {
		w.Subheader(id)
		for _, l := range t.Invalid[id] {
			w.Bullet(shortLocation(w, l), 0)
		}
	}
	return nil
}

func writeRequirement(w Writer, r model.Requirement) {
	w.Subheader(r.ID)
	w.Paragraph(r.Description)
	for _, spec := range r.Specifications {
		w.Bullet(spec, 0)
	}
}

func writeImplementation(w Writer, l model.Location) {
	w.Bullet(fmt.Sprintf("%s %s %d", w.Strong(l.Name+"()"), l.File, l.Line), 0)
	if l.Description != "" {
		w.Bullet(l.Description, 1)
	}
}

func writeTestCase(w Writer, l model.Location) {
	w.Bullet(fmt.Sprintf("Test case %s %s %s %d", w.Strong(l.Name), l.Fixture, l.File, l.Line), 0)
	if l.Description != "" {
		w.Bullet(l.Description, 1)
	}
}

func shortLocation(w Writer, l model.Location) string {
	if l.IsTestCase() {
		return fmt.Sprintf("%s %d", l.File, l.Line)
	}
	return fmt.Sprintf("%s %s %d", w.Strong(l.Name+"()"), l.File, l.Line)
}

func requirementSummary(w Writer, r model.Requirement) string {
	return w.Strong(r.ID) + " " + r.Description
}

// HoverDefinitions writes the definition file of the editor hover
// extension: one "ID,Description" line per requirement, each
// specification appended as a Markdown list item after a <br>.
func HoverDefinitions(w io.Writer, reqs []model.Requirement) error {
	for _, r := range reqs {
		var b strings.Builder
		b.WriteString(r.ID)
		b.WriteString(",")
		b.WriteString(r.Description)
		for _, spec := range r.Specifications {
			b.WriteString(" <br> - **" + spec + "** ")
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
