package content

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/tplctx"
)

func (e *Entity) lookupLayout(name string) *Entity {
	if name == "" || e.env.Layouts == nil {
		return nil
	}
	return e.env.Layouts[name]
}

func (e *Entity) evaluate(name, text string, ctx *tplctx.Context) (string, error) {
	if e.env.Engine == nil {
		return text, nil
	}
	out, err := e.env.Engine.Evaluate(name, text, ctx.Data())
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "template evaluation failed").
			Fatal().WithContext("file", name).Build()
	}
	return out, nil
}

// Render evaluates the transformed body and wraps it in the entity's own
// layout, if that layout exists. Parents of that layout are not applied.
func (e *Entity) Render() (string, error) {
	ctx := e.ctx.Copy()
	body, err := e.Transform()
	if err != nil {
		return "", err
	}
	content, err := e.evaluate(e.rel, body, ctx)
	if err != nil {
		return "", err
	}
	ctx.Set("content", content)

	l := e.lookupLayout(ctx.GetString("layout"))
	if l == nil {
		return content, nil
	}
	return l.wrap(e.rel, ctx)
}

// Layout renders the entity and then applies every ancestor of its layout,
// innermost first. Unknown layout names end the chain.
func (e *Entity) Layout() (string, error) {
	ctx := e.ctx.Copy()
	content, err := e.Render()
	if err != nil {
		return "", err
	}
	ctx.Set("content", content)

	first := e.lookupLayout(ctx.GetString("layout"))
	if first == nil {
		return content, nil
	}
	chain := []string{first.Name()}
	seen := map[string]bool{first.Name(): true}

	for l := e.lookupLayout(first.Parent()); l != nil; l = e.lookupLayout(l.Parent()) {
		chain = append(chain, l.Name())
		if seen[l.Name()] {
			return "", cycleError(chain)
		}
		seen[l.Name()] = true

		out, err := l.wrap(e.rel, ctx)
		if err != nil {
			return "", err
		}
		ctx.Set("content", out)
	}
	return ctx.GetString("content"), nil
}

// wrap evaluates the layout's transformed text against ctx, which carries content.
func (e *Entity) wrap(owner string, ctx *tplctx.Context) (string, error) {
	text, err := e.Transform()
	if err != nil {
		return "", err
	}
	return e.evaluate(e.rel+" (for "+owner+")", text, ctx)
}

// ValidateChains checks that no layout's parent chain revisits a layout.
func ValidateChains(layouts map[string]*Entity) error {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		chain := []string{name}
		seen := map[string]bool{name: true}
		for parent := layouts[name].Parent(); parent != ""; {
			next, ok := layouts[parent]
			if !ok {
				break
			}
			chain = append(chain, parent)
			if seen[parent] {
				return cycleError(chain)
			}
			seen[parent] = true
			parent = next.Parent()
		}
	}
	return nil
}

func cycleError(chain []string) error {
	return errors.LayoutCycleError("layout parent chain loops").
		WithContext("chain", strings.Join(chain, " -> ")).
		Build()
}
