package publish

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func init() {
	color.NoColor = true
}

type fakeSite struct {
	*httptest.Server
	calls atomic.Int32
	body  atomic.Value
}

func newFakeSite(t *testing.T, status int, response string) *fakeSite {
	site := &fakeSite{}

	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.calls.Add(1)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("%+v", errors.WithStack(err))
		}

		site.body.Store(string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))

	t.Cleanup(site.Close)

	t.Setenv("WPPUBLISHER_SITE_URL", site.URL)
	t.Setenv("WPPUBLISHER_USERNAME", "alice")
	t.Setenv("WPPUBLISHER_APP_PASSWORD", "abcd efgh ijkl")
	t.Setenv("WPPUBLISHER_ENABLE_AI", "false")
	t.Setenv("WPPUBLISHER_DEFAULT_STATUS", "publish")

	return site
}

func runPublish(args ...string) error {
	return runPublishWithStdin(nil, args...)
}

func runPublishWithStdin(stdin io.Reader, args ...string) error {
	app := &cli.App{
		Reader: stdin,
		Name:   "wppublisher",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
		},
		Commands: []*cli.Command{Publish()},
	}

	return app.Run(append([]string{"wppublisher", "publish"}, args...))
}

func writeContent(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "post.html")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return path
}

func TestPublishCommand(t *testing.T) {
	site := newFakeSite(t, http.StatusCreated, `{"id":42,"title":{"rendered":"Hello"},"link":"https://blog.example/?p=42"}`)

	content := writeContent(t, "<p>Hi</p>")
	output := t.TempDir()

	err := runPublish("--title", "Hello", "--content", content, "--status", "draft", "--yes", "--output", output)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, int32(1), site.calls.Load())
	assert.Equal(t, `{"title":"Hello","content":"<p>Hi</p>","status":"draft","excerpt":""}`, site.body.Load())

	data, err := os.ReadFile(filepath.Join(output, "hello.html"))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Contains(t, string(data), "id: 42")
	assert.Contains(t, string(data), "<p>Hi</p>")
}

func TestPublishCommandDefaultStatusAndLists(t *testing.T) {
	site := newFakeSite(t, http.StatusCreated, `{"id":7,"title":{"rendered":"Lists"},"link":"https://blog.example/?p=7"}`)

	content := writeContent(t, "<p>Body</p>")

	err := runPublish("--title", "Lists", "--content", content, "--category", "1", "--category", "2", "--tag", "5", "--excerpt", "Short", "--yes")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, `{"title":"Lists","content":"<p>Body</p>","status":"publish","excerpt":"Short","categories":[1,2],"tags":[5]}`, site.body.Load())
}

func TestPublishCommandDryRun(t *testing.T) {
	site := newFakeSite(t, http.StatusCreated, `{}`)

	content := writeContent(t, "<p>Hi</p>")

	err := runPublish("--title", "Hello", "--content", content, "--yes", "--dry-run")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, int32(0), site.calls.Load())
}

func TestPublishCommandFailures(t *testing.T) {
	site := newFakeSite(t, http.StatusUnauthorized, `{"code":"rest_cannot_create"}`)

	content := writeContent(t, "<p>Hi</p>")

	err := runPublish("--title", "Hello", "--content", content, "--yes")
	require.Error(t, err)
	assert.True(t, wordpress.IsAuthError(err))
	assert.Equal(t, int32(1), site.calls.Load())

	err = runPublish("--title", "Hello", "--content", content, "--status", "archived", "--yes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, wordpress.ErrInvalidStatus))

	err = runPublish("--title", "  ", "--content", content, "--yes")
	require.Error(t, err)

	assert.Equal(t, int32(1), site.calls.Load())
}

func TestPublishCommandStdinNeedsYes(t *testing.T) {
	site := newFakeSite(t, http.StatusCreated, `{"id":1,"title":{"rendered":"T"},"link":"https://blog.example/?p=1"}`)

	err := runPublishWithStdin(strings.NewReader("<p>Hi</p>"), "--title", "T", "--content", "-")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStdinNeedsYes), "got %+v", err)
	assert.Equal(t, int32(0), site.calls.Load())
}

func TestPublishCommandStdinWithYes(t *testing.T) {
	site := newFakeSite(t, http.StatusCreated, `{"id":1,"title":{"rendered":"T"},"link":"https://blog.example/?p=1"}`)

	err := runPublishWithStdin(strings.NewReader("<p>Hi</p>"), "--title", "T", "--content", "-", "--yes")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, int32(1), site.calls.Load())
	assert.Equal(t, `{"title":"T","content":"<p>Hi</p>","status":"publish","excerpt":""}`, site.body.Load())
}
