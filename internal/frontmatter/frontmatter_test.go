package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _ := Split(input)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nlayout: default\n---\nHello")

	fm, body, had, _ := Split(input)
	require.True(t, had)
	require.Equal(t, []byte("layout: default\n"), fm)
	require.Equal(t, []byte("Hello"), body)
}

func TestSplit_DelimiterWithTrailingWhitespace(t *testing.T) {
	input := []byte("---  \ntitle: x\n--- \t\nbody\n")

	fm, body, had, _ := Split(input)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Equal(t, []byte("body\n"), body)
}

func TestSplit_MissingClosingDelimiter_IsHeaderless(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	fm, body, had, _ := Split(input)
	require.False(t, had)
	require.Nil(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_DelimiterNotOnFirstLine_IsHeaderless(t *testing.T) {
	input := []byte("intro\n---\nkey: value\n---\n")

	_, body, had, _ := Split(input)
	require.False(t, had)
	require.Equal(t, input, body)
}

func TestSplit_FourDashesIsNotADelimiter(t *testing.T) {
	input := []byte("----\nkey: value\n----\n")

	_, body, had, _ := Split(input)
	require.False(t, had)
	require.Equal(t, input, body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, _ := Split([]byte("---\na: 1\n---"))
	require.True(t, had)
	require.Equal(t, []byte("a: 1\n"), fm)
	require.Empty(t, body)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, style := Split(input)
	require.True(t, had)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, _ := Split(input)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestJoin_RoundTrip_ReconstructsOriginalBytes(t *testing.T) {
	cases := [][]byte{
		[]byte("# Title\n\nHello\n"),
		[]byte("---\nkey: value\n---\n# Title\n"),
		[]byte("---\n---\n# Title\n"),
		[]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"),
	}

	for _, input := range cases {
		fm, body, had, style := Split(input)
		require.Equal(t, input, Join(fm, body, had, style))
	}
}

func TestParseYAML_ValidYAML_ReturnsMap(t *testing.T) {
	fm := []byte("title: Hi\ncategories:\n  - go\n")

	fields, err := ParseYAML(fm)
	require.NoError(t, err)
	require.Equal(t, "Hi", fields["title"])
	require.Equal(t, []any{"go"}, fields["categories"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("  \n")} {
		fields, err := ParseYAML(in)
		require.NoError(t, err)
		require.Empty(t, fields)
	}
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}

func TestParseYAML_NonMapping_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte("- a\n- b\n"))
	require.Error(t, err)

	_, err = ParseYAML([]byte("just a sentence"))
	require.Error(t, err)
}
