// Package content models the source files of a site: layouts, pages and posts.
//
// All three kinds share one Entity type. The kind selects how the output
// path is derived and which extra fields (date, slug, categories) exist.
package content

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/frontmatter"
	"git.home.luguber.info/inful/growl/internal/render"
	"git.home.luguber.info/inful/growl/internal/tplctx"
	"git.home.luguber.info/inful/growl/internal/transform"
)

// Kind discriminates the entity variants.
type Kind int

const (
	KindLayout Kind = iota + 1
	KindPage
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindLayout:
		return "layout"
	case KindPage:
		return "page"
	case KindPost:
		return "post"
	default:
		return "unknown"
	}
}

// TriggerSuffix marks a file as transformable regardless of its extension.
const TriggerSuffix = "_"

// Env is what an entity needs from its site to transform and render itself.
type Env struct {
	Config     *config.Config
	Layouts    map[string]*Entity
	Transforms *transform.Registry
	Engine     render.Engine
}

// Entity is one source file with its parsed header and Context branch.
type Entity struct {
	kind   Kind
	source string
	rel    string
	body   string
	header map[string]any
	ctx    *tplctx.Context
	env    *Env

	post *postInfo
}

// NewLayout loads a layout file. Layouts never see other layouts while loading.
func NewLayout(path string, ctx *tplctx.Context, env *Env) (*Entity, error) {
	layoutEnv := *env
	layoutEnv.Layouts = nil
	return load(KindLayout, path, ctx, &layoutEnv)
}

// NewPage loads a page and exposes it to its own templates as `page`.
func NewPage(path string, ctx *tplctx.Context, env *Env) (*Entity, error) {
	e, err := load(KindPage, path, ctx, env)
	if err != nil {
		return nil, err
	}
	e.ctx.Set("page", e.View())
	return e, nil
}

func load(kind Kind, path string, ctx *tplctx.Context, env *Env) (*Entity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read source file").
			Fatal().WithContext("file", path).Build()
	}
	e := &Entity{
		kind:   kind,
		source: path,
		rel:    filepath.ToSlash(path),
		env:    env,
		ctx:    ctx.Copy(),
		header: map[string]any{},
	}
	if env.Config != nil {
		e.rel = env.Config.Rel(path)
	}

	header, body, had, _ := frontmatter.Split(raw)
	e.body = string(body)
	// An empty header block is not a header: the body stays byte-identical.
	if had && strings.TrimSpace(string(header)) == "" {
		e.body = string(raw)
		had = false
	}
	if had {
		fields, err := frontmatter.ParseYAML(header)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryHeader, "front matter is not a key/value mapping").
				Fatal().WithContext("file", e.rel).Build()
		}
		e.header = fields
		e.ctx.Merge(fields)
	}
	return e, nil
}

func (e *Entity) Kind() Kind { return e.kind }

// Source is the absolute path of the source file.
func (e *Entity) Source() string { return e.source }

// Rel is the source path relative to the base directory, slash separated.
func (e *Entity) Rel() string { return e.rel }

// Body is the source text with the header removed.
func (e *Entity) Body() string { return e.body }

// Header returns the parsed front matter. Callers must not mutate it.
func (e *Entity) Header() map[string]any { return e.header }

// Context returns the entity's own branch.
func (e *Entity) Context() *tplctx.Context { return e.ctx }

// Name is the file name without its final extension; layouts are looked up by it.
func (e *Entity) Name() string {
	base := filepath.Base(e.source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parent returns the layout this entity asks to be wrapped in, or "".
func (e *Entity) Parent() string {
	return e.ctx.GetString("layout")
}

// TransformExt is the extension used for transform dispatch. The trigger
// suffix is ignored, so about.md_ dispatches on md.
func (e *Entity) TransformExt() string {
	name := strings.TrimSuffix(filepath.Base(e.source), TriggerSuffix)
	return transform.Normalize(filepath.Ext(name))
}

// Transform runs the body through the transform registered for its extension.
func (e *Entity) Transform() (string, error) {
	if e.env.Transforms == nil {
		return e.body, nil
	}
	out, err := e.env.Transforms.Apply(e.TransformExt(), e.body)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "transform failed").
			Fatal().WithContext("file", e.rel).WithContext("ext", e.TransformExt()).Build()
	}
	return out, nil
}

// Path is the output path relative to the deploy directory (OS separators).
// Layouts have no output path.
func (e *Entity) Path() string {
	switch e.kind {
	case KindPost:
		return e.post.path(e.outputExt())
	case KindPage:
		return pagePath(e.rel, e.env.Transforms)
	default:
		return ""
	}
}

// URL is Path with forward slashes.
func (e *Entity) URL() string {
	return filepath.ToSlash(e.Path())
}

func (e *Entity) outputExt() string {
	if e.env.Config != nil && e.env.Config.Posts.Extension != "" {
		return e.env.Config.Posts.Extension
	}
	return config.DefaultPostExtension
}

// pagePath strips the trigger suffix, or else a registered extension.
func pagePath(rel string, reg *transform.Registry) string {
	switch {
	case strings.HasSuffix(rel, TriggerSuffix):
		rel = strings.TrimSuffix(rel, TriggerSuffix)
	case reg != nil && reg.Has(filepath.Ext(rel)):
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	}
	return filepath.FromSlash(rel)
}

// IsTransformable reports whether a file name goes through the page pipeline.
func IsTransformable(name string, reg *transform.Registry) bool {
	if strings.HasSuffix(name, TriggerSuffix) {
		return true
	}
	ext := filepath.Ext(name)
	return ext != "" && reg != nil && reg.Has(ext)
}
