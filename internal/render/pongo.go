package render

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/flosch/pongo2/v6"

	"git.home.luguber.info/inful/growl/internal/logfields"
)

var setupOnce sync.Once

// PongoEngine evaluates Django/Jinja style templates (`{{ content }}`) with pongo2.
//
// Output is not HTML-escaped: bodies and layouts are already markup.
// Filters live in pongo2's process-wide registry; globals are per engine.
type PongoEngine struct {
	set    *pongo2.TemplateSet
	logger *slog.Logger
}

// NewPongoEngine creates an engine with its own template set and globals.
// `{% include %}` paths resolve against includeDir when it exists.
func NewPongoEngine(includeDir string, logger *slog.Logger) *PongoEngine {
	setupOnce.Do(func() { pongo2.SetAutoescape(false) })
	if logger == nil {
		logger = slog.Default()
	}
	loader, err := pongo2.NewLocalFileSystemLoader(includeDir)
	if err != nil {
		loader = pongo2.MustNewLocalFileSystemLoader("")
	}
	set := pongo2.NewSet("growl", loader)
	set.Globals = pongo2.Context{}
	return &PongoEngine{set: set, logger: logger}
}

func (e *PongoEngine) Evaluate(name, text string, data map[string]any) (string, error) {
	tpl, err := e.set.FromString(text)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	ctx := make(pongo2.Context, len(data))
	for k, v := range data {
		if !isIdentifier(k) {
			e.logger.Debug("Skipping context key that is not a template identifier",
				logfields.File(name), slog.String("key", k))
			continue
		}
		ctx[k] = v
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("evaluate %s: %w", name, err)
	}
	return out, nil
}

func (e *PongoEngine) RegisterGlobal(name string, value any) {
	e.set.Globals[name] = value
}

func (e *PongoEngine) RegisterFilter(name string, fn Filter) error {
	wrapped := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var p any
		if param != nil && !param.IsNil() {
			p = param.Interface()
		}
		out, err := fn(in.Interface(), p)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	}
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, wrapped)
	}
	return pongo2.RegisterFilter(name, wrapped)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
