package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAndAccessors(t *testing.T) {
	cause := stderrors.New("yaml: line 2: did not find expected key")
	err := MalformedHeaderError("front matter is not a mapping").
		WithCause(cause).
		WithContext("file", "about.md_").
		Build()

	assert.Equal(t, CategoryHeader, err.Category())
	assert.True(t, err.IsFatal())
	assert.Equal(t, cause, err.Cause())
	assert.ErrorIs(t, err, cause)
	file, ok := err.Context().GetString("file")
	require.True(t, ok)
	assert.Equal(t, "about.md_", file)
	assert.Contains(t, err.Error(), "[header] front matter is not a mapping file=about.md_")
}

func TestHasCategoryThroughWrapping(t *testing.T) {
	base := LayoutCycleError("layout chain loops").Build()
	wrapped := fmt.Errorf("prepare: %w", base)

	assert.True(t, HasCategory(wrapped, CategoryLayoutCycle))
	assert.False(t, HasCategory(wrapped, CategoryConfig))
	assert.Equal(t, CategoryLayoutCycle, GetCategory(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, SeverityError, GetSeverity(PostNamingError("x").Build()))
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	orig := ConfigError("bad base").Build()
	derived := orig.WithContext("base", "/nope")

	_, ok := orig.Context().Get("base")
	assert.False(t, ok)
	_, ok = derived.Context().Get("base")
	assert.True(t, ok)
	assert.ErrorIs(t, derived, orig)
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 1}
	b := ErrorContext{"b": 2}
	m := a.Merge(b)
	assert.Equal(t, ErrorContext{"a": 1, "b": 2}, m)
	assert.Equal(t, 1, a["b"])
	assert.Equal(t, b, ErrorContext(nil).Merge(b))
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", ConfigError("missing base").Build(), 7},
		{"hook", HookError("unknown hook").Build(), 9},
		{"header", MalformedHeaderError("bad").Build(), 11},
		{"post naming", PostNamingError("bad").Build(), 11},
		{"layout cycle", LayoutCycleError("loop").Build(), 11},
		{"serve", ServeError("listen").Build(), 12},
		{"internal", InternalError("state").Build(), 10},
		{"wrapped", fmt.Errorf("ctx: %w", ConfigError("x").Build()), 7},
		{"unclassified", stderrors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	code := -1
	adapter := NewCLIErrorAdapter(false, slog.Default())
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("source directory does not exist").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Configuration error: source directory does not exist\n", out.String())
}

func TestCLIErrorAdapter_FormatInternalHidesDetails(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	loud := NewCLIErrorAdapter(true, nil)
	err := InternalError("illegal transition").Build()

	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(err))
	assert.Contains(t, loud.FormatError(err), "illegal transition")
	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
}
