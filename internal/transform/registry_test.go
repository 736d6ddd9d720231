package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UnregisteredExtensionIsIdentity(t *testing.T) {
	r := NewRegistry()
	out, err := r.Apply("txt", "Hello {{ content }}")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{ content }}", out)
	assert.False(t, r.Has("txt"))
}

func TestRegistry_DispatchByNormalizedExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(".UP", func(body string) (string, error) { return strings.ToUpper(body), nil })

	assert.True(t, r.Has("up"))
	assert.True(t, r.Has(".up"))
	out, err := r.Apply("Up", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}

func TestRegistry_LaterRegistrationReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("md", func(string) (string, error) { return "first", nil })
	r.Register("md", func(string) (string, error) { return "second", nil })

	out, err := r.Apply("md", "")
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestRegistry_IgnoresEmptyRegistrations(t *testing.T) {
	r := NewRegistry()
	r.Register("", Identity)
	r.Register("x", nil)
	assert.Empty(t, r.Extensions())
}

func TestRegistry_PropagatesErrors(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("bad", func(string) (string, error) { return "", boom })
	_, err := r.Apply("bad", "x")
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ExtensionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("md", Identity)
	r.Register("html", Identity)
	r.Register("markdown", Identity)
	assert.Equal(t, []string{"html", "markdown", "md"}, r.Extensions())
}

func TestMarkdown_RendersHTMLAndKeepsTemplateTags(t *testing.T) {
	md := Markdown()
	out, err := md("# Hello\n\nSee {{ site.title }} and <span>raw</span>.\n\n| a |\n|---|\n| 1 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, out, "{{ site.title }}")
	assert.Contains(t, out, "<span>raw</span>")
	assert.Contains(t, out, "<table>")
}
