// Package transform dispatches a body to a converter chosen by file extension.
package transform

import (
	"sort"
	"strings"
)

// Func converts a raw body into renderable text.
type Func func(body string) (string, error)

// Identity is applied to extensions without a registered Func.
func Identity(body string) (string, error) { return body, nil }

// Registry maps extensions (lower-case, no leading dot) to transform functions.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Normalize strips a leading dot and lower-cases ext.
func Normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Register binds fn to ext, replacing any previous binding.
func (r *Registry) Register(ext string, fn Func) {
	ext = Normalize(ext)
	if ext == "" || fn == nil {
		return
	}
	r.funcs[ext] = fn
}

// Has reports whether ext has a registered transform.
func (r *Registry) Has(ext string) bool {
	_, ok := r.funcs[Normalize(ext)]
	return ok
}

// Lookup returns the transform for ext, or Identity.
func (r *Registry) Lookup(ext string) Func {
	if fn, ok := r.funcs[Normalize(ext)]; ok {
		return fn
	}
	return Identity
}

// Apply transforms body using the function bound to ext.
func (r *Registry) Apply(ext, body string) (string, error) {
	return r.Lookup(ext)(body)
}

// Extensions returns the registered extensions sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.funcs))
	for ext := range r.funcs {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
