package report

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// rstWriter emits reStructuredText: "=" over- and underlined title, "-"
// for sections and "~" for subsections.
type rstWriter struct {
	sink
}

func newRSTWriter(w io.Writer) *rstWriter {
	return &rstWriter{sink{w: bufio.NewWriter(w)}}
}

func (r *rstWriter) Title(text string) {
	text = oneLine(text)
	line := underline("=", text)
	r.printf("%s\n%s\n%s\n\n", line, text, line)
}

func (r *rstWriter) Header(text string) {
	r.heading(text, "-")
}

func (r *rstWriter) Subheader(text string) {
	r.heading(text, "~")
}

func (r *rstWriter) heading(text, char string) {
	r.endList()
	text = oneLine(text)
	r.printf("\n%s\n%s\n\n", text, underline(char, text))
}

func (r *rstWriter) Paragraph(text string) {
	r.endList()
	r.printf("%s\n\n", oneLine(text))
}

// Bullet separates nesting levels with a blank line, which RST requires
// around nested lists.
func (r *rstWriter) Bullet(text string, indent int) {
	if r.inList && indent != r.lastIndent {
		r.printf("\n")
	}
	r.printf("%s- %s\n", strings.Repeat("  ", indent), oneLine(text))
	r.inList = true
	r.lastIndent = indent
}

func (r *rstWriter) Strong(text string) string {
	return "**" + text + "**"
}

func (r *rstWriter) Close() error {
	r.endList()
	return r.flush()
}

func underline(char, text string) string {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		n = 1
	}
	return strings.Repeat(char, n)
}
