// Package markdown registers the goldmark transform for markdown bodies.
package markdown

import (
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/site"
	"git.home.luguber.info/inful/growl/internal/transform"
)

const Name = "markdown"

// DefaultExtensions are handled when the manifest lists none.
var DefaultExtensions = []string{"md", "markdown", "mkd", "md2", "markdown2"}

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, m hook.Manifest) error {
	md := transform.Markdown()
	for _, ext := range m.Strings("extensions", DefaultExtensions) {
		s.Transforms().Register(ext, md)
	}
	return nil
}
