package hook

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps hook names to compiled-in installers of type T.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register adds an installer. Names must be unique.
func (r *Registry[T]) Register(name string, item T) error {
	if name == "" {
		return fmt.Errorf("cannot register hook without a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[name]; exists {
		return fmt.Errorf("hook %s already registered", name)
	}
	r.items[name] = item
	return nil
}

// Lookup returns the installer for name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

// Names lists registered hooks sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
