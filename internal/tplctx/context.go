// Package tplctx provides the rendering environment shared by layouts, pages and posts.
package tplctx

import (
	"fmt"
	"sort"
)

// Context is an insertion-ordered string-keyed environment.
//
// Copy yields an independent branch: keys and top-level values are copied,
// nested values (maps, slices, pointers, *Context) stay shared.
// The zero value is ready to use. Context is not safe for concurrent writers.
type Context struct {
	keys   []string
	values map[string]any
}

// New creates a Context holding the entries of m, inserted in sorted key order.
func New(m map[string]any) *Context {
	c := &Context{}
	c.Merge(m)
	return c
}

func (c *Context) Get(key string) (any, bool) {
	if c == nil || c.values == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value at key formatted as a string, or "" when absent.
func (c *Context) GetString(key string) string {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set inserts or replaces key. Replacing keeps the original position.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

func (c *Context) Delete(key string) {
	if _, exists := c.values[key]; !exists {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (c *Context) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Merge sets every entry of m, overriding existing keys. New keys are appended in
// sorted order so merging a Go map is deterministic.
func (c *Context) Merge(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Set(k, m[k])
	}
}

// Copy returns a shallow branch of c.
func (c *Context) Copy() *Context {
	out := &Context{
		keys:   make([]string, len(c.Keys())),
		values: make(map[string]any, c.Len()),
	}
	if c == nil {
		return out
	}
	copy(out.keys, c.keys)
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}

// Map returns a plain map snapshot of the top level.
func (c *Context) Map() map[string]any {
	out := make(map[string]any, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Namespace returns the nested Context stored at key, creating it when absent.
// A non-Context value at key is replaced.
func (c *Context) Namespace(key string) *Context {
	if v, ok := c.Get(key); ok {
		if ns, ok := v.(*Context); ok {
			return ns
		}
	}
	ns := &Context{}
	c.Set(key, ns)
	return ns
}

// Data returns a plain map for template evaluation. Nested *Context values are
// converted recursively; everything else is passed through.
func (c *Context) Data() map[string]any {
	out := make(map[string]any, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.values {
		if nested, ok := v.(*Context); ok {
			out[k] = nested.Data()
			continue
		}
		out[k] = v
	}
	return out
}
