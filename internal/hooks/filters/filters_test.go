package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/growl/internal/testutil"
)

func TestDateFormatDirectives(t *testing.T) {
	d := time.Date(2022, 1, 9, 14, 5, 0, 0, time.UTC)
	cases := map[string]string{
		"%Y-%m-%d":           "2022-01-09",
		"%d %B %Y":           "09 January 2022",
		"%a, %d %b %Y %H:%M": "Sun, 09 Jan 2022 14:05",
		"100%%":              "100%",
		"2006/01/02":         "2022/01/09",
	}
	for in, want := range cases {
		out, err := DateFormat(d, in)
		require.NoError(t, err)
		assert.Equal(t, want, out, in)
	}
}

func TestDateFormat(t *testing.T) {
	d := time.Date(2022, 1, 9, 14, 5, 0, 0, time.UTC)

	out, err := DateFormat(d, nil)
	require.NoError(t, err)
	assert.Equal(t, "2022-01-09", out)

	out, err = DateFormat(d, "%d %B %Y")
	require.NoError(t, err)
	assert.Equal(t, "09 January 2022", out)

	out, err = DateFormat("2022-01-09", "Jan 2")
	require.NoError(t, err)
	assert.Equal(t, "Jan 9", out)

	_, err = DateFormat(42, nil)
	assert.Error(t, err)
}

func TestXMLDateTime(t *testing.T) {
	out, err := XMLDateTime(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, "2022-01-01T00:00:00Z", out)

	out, err = XMLDateTime(time.Date(2022, 1, 1, 8, 30, 0, 0, time.FixedZone("CEST", 2*3600)), nil)
	require.NoError(t, err)
	assert.Equal(t, "2022-01-01T08:30:00+02:00", out)
}

func TestXTruncate(t *testing.T) {
	src := "<p>Hello <b>world</b></p>"

	out, err := XTruncate(src, 8, "...")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello...</p>", out)

	out, err = XTruncate(src, 13, "...")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello <b>w...</b></p>", out)

	out, err = XTruncate(src, nil, "...")
	require.NoError(t, err)
	assert.Equal(t, src, out)

	out, err = XTruncate("<i>héllo</i>", "5", " [more]")
	require.NoError(t, err)
	assert.Equal(t, "<i>hé [more]</i>", out)

	_, err = XTruncate(src, "many", "...")
	assert.Error(t, err)
	_, err = XTruncate(src, -1, "...")
	assert.Error(t, err)
}

func TestFiltersHook_AvailableInTemplates(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{
		"_hooks/filters.yaml":    "hook: filters\n",
		"_posts/2022-01-01-a.md": "<p>A long body that goes on</p>",
		"index.html_": `{% for p in site.posts %}` +
			`{{ p.date|dateformat:"%d %B %Y" }}|{{ p.date|xmldatetime }}|{{ p.content|xtruncate:9 }}` +
			`{% endfor %}`,
	})
	f.MustBuild()
	assert.Equal(t, "01 January 2022|2022-01-01T00:00:00Z|<p>A long...</p>", f.Output().Content("index.html"))
}

func TestFiltersHook_DateFormatCamelCaseAlias(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{
		"_hooks/filters.yaml":    "hook: filters\n",
		"_posts/2022-01-01-a.md": "a",
		"index.html_":            `{% for p in site.posts %}{{ p.date|dateFormat }}|{{ p.date|dateFormat:"%d %B" }}{% endfor %}`,
	})
	f.MustBuild()
	assert.Equal(t, "2022-01-01|01 January", f.Output().Content("index.html"))
}
