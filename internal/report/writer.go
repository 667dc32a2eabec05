// Package report renders traceability documents through a small structured
// writer, independent of the output markup.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer builds one structured document. Methods record the first write
// error and become no-ops afterwards; Close reports it.
type Writer interface {
	Title(text string)
	Header(text string)
	Subheader(text string)
	Paragraph(text string)
	// Bullet adds a list item; indent 0 is top level, 1 is nested under
	// the previous item.
	Bullet(text string, indent int)
	// Strong returns text marked up for inline emphasis.
	Strong(text string) string
	Close() error
}

// Format names a Writer implementation.
type Format string

const (
	RST      Format = "rst"
	Markdown Format = "md"
	HTML     Format = "html"
)

// Formats lists the supported formats.
var Formats = []Format{RST, Markdown, HTML}

// Ext returns the file extension used for the format, with a leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FormatError reports an unknown format name.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unknown report format %q", e.Format)
}

// NewWriter returns a Writer for format that writes to w. Close flushes
// the document but does not close w.
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case RST:
		return newRSTWriter(w), nil
	case Markdown:
		return newMarkdownWriter(w), nil
	case HTML:
		return newHTMLWriter(w), nil
	}
	return nil, &FormatError{Format: string(format)}
}

// Create writes one report to path: it creates the parent directory, opens
// the file, runs build and always closes the file. The first error wins;
// a failed build may leave a truncated file behind.
func Create(path string, format Format, build func(Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing report %s: %w", path, cerr)
		}
	}()

	w, err := NewWriter(format, f)
	if err != nil {
		return err
	}
	if err := build(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("building %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CreateFile is Create for flat outputs that bypass the structured writer.
func CreateFile(path string, build func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := build(bw); err != nil {
		return fmt.Errorf("building %s: %w", path, err)
	}
	return bw.Flush()
}

// sink is the shared plumbing of the text writers: a buffered writer that
// remembers the first error, and the indent level of the last bullet.
type sink struct {
	w          *bufio.Writer
	err        error
	lastIndent int
	inList     bool
}

func (s *sink) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *sink) endList() {
	if s.inList {
		s.printf("\n")
	}
	s.inList = false
	s.lastIndent = 0
}

func (s *sink) flush() error {
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

// oneLine folds newlines so free text cannot break the document structure.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
