// Package render evaluates template expressions in transformed bodies and layouts.
package render

// Filter transforms a piped template value. param is nil when the filter is
// used without an argument.
type Filter func(in any, param any) (any, error)

// Engine evaluates template text against a data map.
type Engine interface {
	// Evaluate renders text. name identifies the source in error messages.
	Evaluate(name, text string, data map[string]any) (string, error)
	// RegisterFilter makes fn available as `{{ value|name }}`, replacing an
	// existing filter of the same name.
	RegisterFilter(name string, fn Filter) error
	// RegisterGlobal exposes value to every evaluation. Data keys win on clash.
	RegisterGlobal(name string, value any)
}
