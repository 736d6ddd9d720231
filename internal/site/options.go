package site

// Options collects flag groups contributed by hooks. The CLI embeds every
// group into its parser; successive builds sharing one Options see the parsed values.
type Options struct {
	names  []string
	groups map[string]any
}

func NewOptions() *Options {
	return &Options{groups: map[string]any{}}
}

// Groups returns the registered flag structs in registration order.
func (o *Options) Groups() []any {
	out := make([]any, 0, len(o.names))
	for _, n := range o.names {
		out = append(out, o.groups[n])
	}
	return out
}

// FlagGroup returns the flag struct registered under name, registering def
// when none exists yet.
func FlagGroup[T any](o *Options, name string, def T) *T {
	if existing, ok := o.groups[name].(*T); ok {
		return existing
	}
	if _, taken := o.groups[name]; !taken {
		o.names = append(o.names, name)
	}
	o.groups[name] = &def
	return &def
}
