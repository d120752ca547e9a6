package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-htmldoc/internal/assets"
)

// ErrMarkdownRender indicates Markdown could not be turned into HTML.
var ErrMarkdownRender = errors.New("markdown rendering failed")

// page is the data handed to the document template.
type page struct {
	Title string
	Style template.CSS
	Body  template.HTML
}

// Renderer converts Markdown to standalone HTML documents.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
	css  string
}

// NewRenderer creates a Renderer with GFM extensions and class-based
// syntax highlighting.
func NewRenderer() (*Renderer, error) {
	tmpl, err := assets.LoadTemplate(assets.DocumentTemplate)
	if err != nil {
		return nil, err
	}
	css, err := assets.LoadStyle(assets.MarkdownStyle)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // chapter ids come from heading ids
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// Raw HTML in Markdown is dropped (no html.WithUnsafe).
		),
	)
	return &Renderer{md: md, tmpl: tmpl, css: css}, nil
}

// Render converts Markdown source into a complete HTML document.
// Relative references are rewritten against sourceDir. The title is the
// text of the first h1, or fallbackTitle when there is none.
// Goldmark has no context support, so conversion runs in a goroutine and
// ctx only bounds the wait.
func (r *Renderer) Render(ctx context.Context, source []byte, sourceDir, fallbackTitle string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		out, err := r.render(source, sourceDir, fallbackTitle)
		done <- result{html: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.html, res.err
	}
}

func (r *Renderer) render(source []byte, sourceDir, fallbackTitle string) (string, error) {
	var fragment bytes.Buffer
	if err := r.md.Convert(source, &fragment); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownRender, err)
	}

	doc, err := goquery.NewDocumentFromReader(&fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownRender, err)
	}
	if _, err := RewriteRelativeRefs(doc, sourceDir); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownRender, err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = fallbackTitle
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownRender, err)
	}

	var out strings.Builder
	err = r.tmpl.Execute(&out, page{
		Title: title,
		Style: template.CSS(r.css), // #nosec G203 -- embedded stylesheet
		Body:  template.HTML(body), // #nosec G203 -- goldmark output without raw HTML
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownRender, err)
	}
	return out.String(), nil
}
