package report

import (
	"bufio"
	"io"
	"strings"
)

// markdownWriter emits CommonMark with ATX headings.
type markdownWriter struct {
	sink
}

func newMarkdownWriter(w io.Writer) *markdownWriter {
	return &markdownWriter{sink{w: bufio.NewWriter(w)}}
}

func (m *markdownWriter) Title(text string) {
	m.heading(1, text)
}

func (m *markdownWriter) Header(text string) {
	m.heading(2, text)
}

func (m *markdownWriter) Subheader(text string) {
	m.heading(3, text)
}

func (m *markdownWriter) heading(level int, text string) {
	m.endList()
	m.printf("%s %s\n\n", strings.Repeat("#", level), oneLine(text))
}

func (m *markdownWriter) Paragraph(text string) {
	m.endList()
	m.printf("%s\n\n", oneLine(text))
}

func (m *markdownWriter) Bullet(text string, indent int) {
	m.printf("%s- %s\n", strings.Repeat("  ", indent), oneLine(text))
	m.inList = true
	m.lastIndent = indent
}

func (m *markdownWriter) Strong(text string) string {
	return "**" + text + "**"
}

func (m *markdownWriter) Close() error {
	m.endList()
	return m.flush()
}
