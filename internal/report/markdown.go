package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Document accumulates a markdown report
type Document struct {
	b strings.Builder
}

// NewDocument starts a document with a top-level title
func NewDocument(title string) *Document {
	d := &Document{}
	fmt.Fprintf(&d.b, "# %s\n\n", title)
	return d
}

// Section adds a second-level heading
func (d *Document) Section(title string) *Document {
	fmt.Fprintf(&d.b, "## %s\n\n", title)
	return d
}

// Paragraph adds a formatted paragraph
func (d *Document) Paragraph(format string, args ...interface{}) *Document {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n\n")
	return d
}

// Bullets adds an unordered list
func (d *Document) Bullets(items ...string) *Document {
	for _, it := range items {
		fmt.Fprintf(&d.b, "- %s\n", it)
	}
	d.b.WriteString("\n")
	return d
}

// Table adds a pipe table; short rows are padded
func (d *Document) Table(headers []string, rows [][]string) *Document {
	if len(headers) == 0 {
		return d
	}
	d.b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")
	d.b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		d.b.WriteString("| " + strings.Join(escapeCells(cells), " | ") + " |\n")
	}
	d.b.WriteString("\n")
	return d
}

// KeyValues adds a two-column table
func (d *Document) KeyValues(pairs ...[2]string) *Document {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p[0], p[1]}
	}
	return d.Table([]string{"Quantity", "Value"}, rows)
}

// Markdown returns the document text
func (d *Document) Markdown() string {
	return d.b.String()
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// ToHTML renders markdown as a complete HTML page
func ToHTML(title, md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// ToHTMLFragment renders markdown without the surrounding page
func ToHTMLFragment(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
