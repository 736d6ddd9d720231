package transform

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown returns a goldmark-backed transform with GitHub flavoured extensions.
// Raw HTML in the body is passed through so layouts and template tags survive.
func Markdown() Func {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return func(body string) (string, error) {
		var buf bytes.Buffer
		if err := md.Convert([]byte(body), &buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}
