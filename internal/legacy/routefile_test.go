package legacy

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routeFileFixture = `
default_controller: "home/index"
translate_uri_dashes: true
override_404: "errors/show404"
routes:
  "articles/(:num)": "blog/post/show/$1"
  "products/(:any)":
    get: "catalog/view/$1"
    post: "catalog/update/$1"
`

func TestParseRouteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routeFileFixture), 0o644))

	file, err := ParseRouteFile(path)
	require.NoError(t, err)

	assert.Equal(t, "home/index", file.DefaultController)
	assert.True(t, file.TranslateDashes)
	assert.Equal(t, "errors/show404", file.NotFoundOverride)
	assert.Len(t, file.Rules, 3)
}

func TestRewriteRuleShorthand(t *testing.T) {
	t.Parallel()

	rule, err := NewRewriteRule("articles/(:num)", "blog/post/show/$1", "")
	require.NoError(t, err)

	segments, ok := rule.Apply(http.MethodGet, "articles/42")
	require.True(t, ok)
	assert.Equal(t, []string{"blog", "post", "show", "42"}, segments)

	_, ok = rule.Apply(http.MethodGet, "articles/abc")
	assert.False(t, ok, ":num only matches digits")
}

func TestRewriteRuleAnyShorthand(t *testing.T) {
	t.Parallel()

	rule, err := NewRewriteRule("docs/(:any)", "pages/view/$1", "")
	require.NoError(t, err)

	segments, ok := rule.Apply(http.MethodGet, "docs/intro")
	require.True(t, ok)
	assert.Equal(t, []string{"pages", "view", "intro"}, segments)

	_, ok = rule.Apply(http.MethodGet, "docs/a/b")
	assert.False(t, ok, ":any does not cross segment boundaries")
}

func TestRewriteRuleVerbScoped(t *testing.T) {
	t.Parallel()

	rule, err := NewRewriteRule("products/(:any)", "catalog/update/$1", "POST")
	require.NoError(t, err)

	_, ok := rule.Apply(http.MethodGet, "products/widget")
	assert.False(t, ok)

	segments, ok := rule.Apply(http.MethodPost, "products/widget")
	require.True(t, ok)
	assert.Equal(t, []string{"catalog", "update", "widget"}, segments)
}

func TestParseRouteFileBadPattern(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  \"bad/(\": \"x/y\"\n"), 0o644))

	_, err := ParseRouteFile(path)
	assert.Error(t, err)
}

func TestSplitSegments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, SplitSegments("/a/b/"))
	assert.Nil(t, SplitSegments("/"))
	assert.Nil(t, SplitSegments(""))
}
