// Package hook provides the pieces behind growl's extension mechanism: an
// ordered interceptor chain per operation, discovery of hook manifests in the
// site's hook directory and a registry of compiled-in hook installers.
package hook

// Wrapper decorates an operation. It receives the previously installed
// implementation and may call it, skip it or call it conditionally.
type Wrapper[F any] func(next F) F

// Chain holds the current implementation of one wrappable operation.
//
// Each Wrap installs a new outermost layer, so the most recently installed
// wrapper runs first. Chain is not safe for concurrent use.
type Chain[F any] struct {
	fn    F
	depth int
}

// NewChain starts a chain with the built-in implementation.
func NewChain[F any](base F) *Chain[F] {
	return &Chain[F]{fn: base}
}

// Wrap installs w around the current implementation.
func (c *Chain[F]) Wrap(w Wrapper[F]) {
	c.fn = w(c.fn)
	c.depth++
}

// Func returns the composed implementation.
func (c *Chain[F]) Func() F {
	return c.fn
}

// Depth is the number of installed wrappers.
func (c *Chain[F]) Depth() int {
	return c.depth
}
