// Package doxygen extracts documented functions and test cases, with their
// requirement tags, from Doxygen XML exports.
package doxygen

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/phobologic/reqtrace/internal/discover"
	"github.com/phobologic/reqtrace/internal/model"
)

// RequirementTitle is the xrefsect title that marks requirement tags, as
// produced by an ALIASES entry like
// "req=\xrefitem req \"Requirement\" \"Requirements\"".
const RequirementTitle = "Requirement"

// Mode selects how function records are interpreted.
type Mode int

const (
	// Functions reads plain implementation functions.
	Functions Mode = iota
	// TestCases reads GoogleTest-style TEST_F(Fixture, Name) macros, where
	// Doxygen reports the fixture and test name as parameter types.
	TestCases
)

func (m Mode) String() string {
	if m == TestCases {
		return "test cases"
	}
	return "functions"
}

// ExportError reports an export file that could not be read or parsed.
type ExportError struct {
	Path  string
	Cause error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("doxygen export %s: %v", e.Path, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// ParseFiles parses every file in dir matched by patterns, in path order.
func ParseFiles(dir string, patterns []string, mode Mode, opts discover.Options) ([]model.Location, error) {
	files, err := discover.Files(dir, patterns, opts)
	if err != nil {
		return nil, fmt.Errorf("discovering export files: %w", err)
	}

	var locs []model.Location
	for _, rel := range files {
		found, err := ParseFile(filepath.Join(dir, filepath.FromSlash(rel)), mode)
		if err != nil {
			return nil, err
		}
		locs = append(locs, found...)
	}
	return locs, nil
}

// ParseFile parses a single export file.
func ParseFile(path string, mode Mode) ([]model.Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExportError{Path: path, Cause: err}
	}
	defer f.Close()

	locs, err := Parse(f, mode)
	if err != nil {
		return nil, &ExportError{Path: path, Cause: err}
	}
	return locs, nil
}

// Parse returns one Location per <memberdef kind="function"> in r, at any
// depth. Missing optional elements give empty values rather than errors.
func Parse(r io.Reader, mode Mode) ([]model.Location, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var locs []model.Location
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "memberdef" {
			continue
		}
		if attr(se, "kind") != "function" {
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			continue
		}

		var m memberDef
		if err := dec.DecodeElement(&m, &se); err != nil {
			return nil, err
		}
		locs = append(locs, m.toLocation(mode))
	}
	return locs, nil
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

type memberDef struct {
	Name     string        `xml:"name"`
	Location *locationElem `xml:"location"`
	Params   []param       `xml:"param"`
	Detailed detailedDescr `xml:"detaileddescription"`
}

type locationElem struct {
	File string `xml:"file,attr"`
	Line string `xml:"line,attr"`
}

type param struct {
	Type paramType `xml:"type"`
}

type paramType struct {
	Text string   `xml:",chardata"`
	Refs []string `xml:"ref"`
}

type detailedDescr struct {
	Paras []para `xml:"para"`
}

type xrefSect struct {
	Title string `xml:"xreftitle"`
	Paras []para `xml:"xrefdescription>para"`
}

// para keeps the text before its first child element and any xrefsect
// children; everything else inside a paragraph is skipped.
type para struct {
	Lead  string
	Xrefs []xrefSect
}

func (p *para) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var lead strings.Builder
	seenChild := false
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if !seenChild {
				lead.Write(t)
			}
		case xml.StartElement:
			seenChild = true
			if t.Name.Local != "xrefsect" {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var x xrefSect
			if err := d.DecodeElement(&x, &t); err != nil {
				return err
			}
			p.Xrefs = append(p.Xrefs, x)
		case xml.EndElement:
			p.Lead = lead.String()
			return nil
		}
	}
}

func (m *memberDef) toLocation(mode Mode) model.Location {
	loc := model.Location{
		Name:           m.Name,
		Description:    m.description(),
		RequirementIDs: m.requirementIDs(),
	}
	if m.Location != nil {
		loc.File = m.Location.File
		loc.Line = parseLine(m.Location.Line)
	}

	if mode == TestCases {
		loc.Name = ""
		if len(m.Params) > 0 {
			loc.Fixture = m.Params[0].Type.name()
		}
		if len(m.Params) > 1 {
			loc.Name = strings.TrimSpace(m.Params[1].Type.Text)
		}
	}
	return loc
}

func (m *memberDef) description() string {
	if len(m.Detailed.Paras) == 0 {
		return ""
	}
	return strings.TrimSpace(m.Detailed.Paras[0].Lead)
}

func (m *memberDef) requirementIDs() []string {
	var ids []string
	for _, p := range m.Detailed.Paras {
		for _, x := range p.Xrefs {
			if x.Title != RequirementTitle {
				continue
			}
			for _, entry := range x.Paras {
				if id := strings.TrimSpace(entry.Lead); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// name prefers the cross-referenced type name, which Doxygen emits when the
// fixture class is itself documented.
func (t paramType) name() string {
	for _, r := range t.Refs {
		if r = strings.TrimSpace(r); r != "" {
			return r
		}
	}
	return strings.TrimSpace(t.Text)
}

func parseLine(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
