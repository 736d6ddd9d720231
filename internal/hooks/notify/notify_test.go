package notify_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/hooks/notify"
	"git.home.luguber.info/inful/growl/internal/testutil"
)

type fakeConn struct {
	subject string
	data    []byte
	flushed bool
	closed  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return nil
}

func (c *fakeConn) Flush() error { c.flushed = true; return nil }

func (c *fakeConn) Close() { c.closed = true }

func withDial(t *testing.T, dial func(string) (notify.Publisher, error)) {
	t.Helper()
	orig := notify.Dial
	notify.Dial = dial
	t.Cleanup(func() { notify.Dial = orig })
}

func TestNotify_PublishesBuildEvent(t *testing.T) {
	conn := &fakeConn{}
	var dialed string
	withDial(t, func(url string) (notify.Publisher, error) {
		dialed = url
		return conn, nil
	})

	f := testutil.NewFixture(t, map[string]string{
		"_hooks/notify.yaml":     "hook: notify\noptions:\n  url: nats://bus:4222\n  subject: sites.blog\n",
		"_posts/2022-01-01-a.md": "---\ncategory: go\n---\na",
		"_posts/2022-01-02-b.md": "---\npublish: false\n---\nb",
	})
	s := f.MustBuild()

	assert.Equal(t, "nats://bus:4222", dialed)
	assert.Equal(t, "sites.blog", conn.subject)
	assert.True(t, conn.flushed)
	assert.True(t, conn.closed)

	var ev notify.Event
	require.NoError(t, json.Unmarshal(conn.data, &ev))
	assert.Equal(t, s.Info().BuildID, ev.BuildID)
	assert.Equal(t, []string{"2022/01/01/a/index.html"}, ev.Posts)
	assert.Equal(t, 1, ev.UnpublishedPosts)
	assert.Equal(t, []string{"go"}, ev.Categories)
	assert.Equal(t, []string{"notify"}, ev.Hooks)
}

func TestNotify_UnreachableServerIsOnlyAWarning(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{
		"_hooks/notify.yaml": "hook: notify\noptions:\n  url: nats://127.0.0.1:1\n",
		"index.html":         "x",
	})
	f.MustBuild()
	f.Output().AssertFileExists("index.html")
}

func TestNotify_RequiredFailsTheBuild(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{
		"_hooks/notify.yaml": "hook: notify\noptions:\n  url: nats://127.0.0.1:1\n  required: true\n",
	})
	_, err := f.Build()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryHook))
}
