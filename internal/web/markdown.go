package web

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderMarkdown renders model output as HTML. Raw HTML in the output is
// dropped and only safe link protocols are kept.
func renderMarkdown(text string) template.HTML {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(text))

	htmlFlags := mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML | mdhtml.Safelink
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: htmlFlags})

	return template.HTML(markdown.Render(doc, renderer))
}
