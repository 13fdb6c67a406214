package report

import (
	"fmt"
	"html"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"statsmed/domain/analysis"
)

// RenderHTML converts a report body to an HTML fragment headed by the
// report label and description.
func RenderHTML(r *analysis.TestReport) []byte {
	if r == nil {
		return nil
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(r.Body))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	body := markdown.Render(doc, renderer)

	head := fmt.Sprintf("<h1>%s</h1>\n<p class=\"description\">%s</p>\n",
		html.EscapeString(r.Label), html.EscapeString(r.Description))
	return append([]byte(head), body...)
}
