package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// htmlWriter collects the document as Markdown and renders a standalone
// HTML page with goldmark on Close.
type htmlWriter struct {
	*markdownWriter
	buf   *bytes.Buffer
	out   io.Writer
	title string
}

func newHTMLWriter(w io.Writer) *htmlWriter {
	buf := new(bytes.Buffer)
	return &htmlWriter{markdownWriter: newMarkdownWriter(buf), buf: buf, out: w}
}

func (h *htmlWriter) Title(text string) {
	if h.title == "" {
		h.title = oneLine(text)
	}
	h.markdownWriter.Title(text)
}

func (h *htmlWriter) Close() error {
	if err := h.markdownWriter.Close(); err != nil {
		return err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var body bytes.Buffer
	if err := md.Convert(h.buf.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	_, err := fmt.Fprintf(h.out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(h.title), body.Bytes())
	return err
}
