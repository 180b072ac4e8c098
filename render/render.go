// ABOUTME: Converts markdown phase content to HTML via goldmark for the web viewer.
// ABOUTME: Renderer is built once and reused; conversion failures fall back to escaped text.
package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
)

// Renderer converts markdown document content to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with goldmark defaults. Raw HTML in the input is
// not passed through, which keeps model output from injecting markup.
func New() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// ToHTML converts markdown to HTML. On conversion failure the input comes
// back escaped rather than lost.
func (r *Renderer) ToHTML(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "<pre>" + html.EscapeString(markdown) + "</pre>"
	}
	return buf.String()
}
