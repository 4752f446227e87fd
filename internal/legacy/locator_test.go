package legacy

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeController creates an empty controller fixture file.
func writeController(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name+".go")
	require.NoError(t, os.WriteFile(path, []byte("package controllers\n"), 0o644))
	return path
}

// fixtureTree builds an application layout:
//
//	app/controllers/Welcome.go
//	app/controllers/admin/Dashboard.go
//	app/controllers/shop/Home.go
//	modules/blog/controllers/Post.go
//	modules/blog/controllers/Blog.go
func fixtureTree(t *testing.T) (appDir string, moduleRoots []string) {
	t.Helper()
	base := t.TempDir()
	appDir = filepath.Join(base, "app", "controllers")
	writeController(t, appDir, "Welcome")
	writeController(t, filepath.Join(appDir, "admin"), "Dashboard")
	writeController(t, filepath.Join(appDir, "shop"), "Home")

	modules := filepath.Join(base, "modules")
	writeController(t, filepath.Join(modules, "blog", "controllers"), "Post")
	writeController(t, filepath.Join(modules, "blog", "controllers"), "Blog")
	return appDir, []string{modules}
}

func newFixtureLocator(t *testing.T, cfg Config) *Locator {
	t.Helper()
	appDir, roots := fixtureTree(t)
	cfg.AppControllerDir = appDir
	if cfg.DefaultController == "" {
		cfg.DefaultController = "home/index"
	}

	index := NewModuleIndex(roots, nil)
	require.NoError(t, index.Scan())
	return NewLocator(cfg, index, nil, nil)
}

func TestLocatorModuleControllerBeforeAppRoot(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	target := l.Locate(http.MethodGet, []string{"blog", "post", "show", "42"})

	require.False(t, target.NotFound())
	assert.Equal(t, StatusController, target.Status)
	assert.Equal(t, "blog", target.Module)
	assert.Equal(t, "post", target.Controller)
	assert.Equal(t, "show", target.Method)
	assert.Equal(t, []string{"42"}, target.Params)
	assert.FileExists(t, target.File)
}

func TestLocatorModuleAloneUsesOwnController(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	target := l.Locate(http.MethodGet, []string{"blog"})

	require.False(t, target.NotFound())
	assert.Equal(t, StatusModuleRoot, target.Status)
	assert.Equal(t, "blog", target.Controller)
	assert.Equal(t, "index", target.Method)
}

func TestLocatorRootController(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	target := l.Locate(http.MethodGet, []string{"welcome", "about"})

	require.False(t, target.NotFound())
	assert.Equal(t, StatusController, target.Status)
	assert.Equal(t, "welcome", target.Controller)
	assert.Equal(t, "about", target.Method)
}

func TestLocatorSubfolderDefaultController(t *testing.T) {
	t.Parallel()

	// shop/ holds only the default-named controller.
	l := newFixtureLocator(t, Config{DefaultController: "home/index"})
	target := l.Locate(http.MethodGet, []string{"shop", "checkout"})

	require.False(t, target.NotFound())
	assert.Equal(t, StatusModuleRoot, target.Status)
	assert.Equal(t, "home", target.Controller)
	assert.Equal(t, "checkout", target.Method)
}

func TestLocatorSubfolderController(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	target := l.Locate(http.MethodGet, []string{"admin", "dashboard", "stats"})

	require.False(t, target.NotFound())
	assert.Equal(t, StatusSubfolder, target.Status)
	assert.Equal(t, "dashboard", target.Controller)
	assert.Equal(t, "stats", target.Method)
}

func TestLocatorDirectoryScanFallback(t *testing.T) {
	t.Parallel()

	// "dashboard" alone is found by scanning first-level subdirectories.
	l := newFixtureLocator(t, Config{})
	target := l.Locate(http.MethodGet, []string{"dashboard"})

	require.False(t, target.NotFound())
	assert.Equal(t, StatusSubfolder, target.Status)
	assert.Equal(t, "dashboard", target.Controller)
}

func TestLocatorTerminalFailureKeepsSegments(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	target := l.Locate(http.MethodGet, []string{"no", "such", "thing"})

	assert.True(t, target.NotFound())
	assert.Equal(t, StatusNotFound, target.Status)
	assert.Equal(t, []string{"no", "such", "thing"}, target.Segments)
}

func TestLocatorNotFoundOverride(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{NotFoundOverride: "welcome/missing"})
	target := l.Locate(http.MethodGet, []string{"absent"})

	require.False(t, target.NotFound())
	assert.Equal(t, "welcome", target.Controller)
	assert.Equal(t, "missing", target.Method)
	assert.Equal(t, []string{"absent"}, target.Segments, "original segments preserved")
}

func TestLocatorDashTranslation(t *testing.T) {
	t.Parallel()

	appDir, roots := fixtureTree(t)
	writeController(t, appDir, "my_page")

	index := NewModuleIndex(roots, nil)
	require.NoError(t, index.Scan())
	l := NewLocator(Config{
		AppControllerDir:  appDir,
		DefaultController: "home",
		TranslateDashes:   true,
	}, index, nil, nil)

	target := l.Locate(http.MethodGet, []string{"my-page", "some-method"})
	require.False(t, target.NotFound())
	assert.Equal(t, "my_page", target.Controller)
	assert.Equal(t, "some_method", target.Method)
}

func TestLocatorEmptySegmentsUseDefaultController(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{DefaultController: "welcome/index"})
	target := l.Locate(http.MethodGet, nil)

	require.False(t, target.NotFound())
	assert.Equal(t, "welcome", target.Controller)
	assert.Equal(t, "index", target.Method)
}

func TestLocatorRewriteRule(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	rule, err := NewRewriteRule("articles/(:num)", "blog/post/show/$1", "")
	require.NoError(t, err)
	l.AddRules(*rule)

	target := l.Locate(http.MethodGet, []string{"articles", "7"})
	require.False(t, target.NotFound())
	assert.Equal(t, "blog", target.Module)
	assert.Equal(t, "post", target.Controller)
	assert.Equal(t, "show", target.Method)
	assert.Equal(t, []string{"7"}, target.Params)
}

func TestLocatorRewriteToEmptyTarget(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	rule, err := NewRewriteRule("teapot", "", "")
	require.NoError(t, err)
	l.AddRules(*rule)

	target := l.Locate(http.MethodGet, []string{"teapot"})
	assert.True(t, target.NotFound())
	assert.Equal(t, []string{"teapot"}, target.Segments)
}

func TestLocatorVerbScopedRewrite(t *testing.T) {
	t.Parallel()

	l := newFixtureLocator(t, Config{})
	rule, err := NewRewriteRule("articles/(:num)", "blog/post/update/$1", http.MethodPost)
	require.NoError(t, err)
	l.AddRules(*rule)

	target := l.Locate(http.MethodPost, []string{"articles", "7"})
	require.False(t, target.NotFound())
	assert.Equal(t, "update", target.Method)

	target = l.Locate(http.MethodGet, []string{"articles", "7"})
	assert.True(t, target.NotFound(), "rule is scoped to POST")
}

type fakeProber struct {
	handlers map[string]bool
	methods  map[string]bool
}

func (p *fakeProber) HandlerExists(identifier string) bool { return p.handlers[identifier] }
func (p *fakeProber) MethodExists(identifier, method string) bool {
	return p.methods[identifier+"@"+method]
}

func TestLocatorNamespaceShortcut(t *testing.T) {
	t.Parallel()

	appDir, roots := fixtureTree(t)
	index := NewModuleIndex(roots, nil)
	require.NoError(t, index.Scan())

	prober := &fakeProber{handlers: map[string]bool{`App\Admin\Users`: true}}
	l := NewLocator(Config{AppControllerDir: appDir, DefaultController: "home"}, index, prober, nil)

	target := l.Locate(http.MethodGet, []string{`App\Admin\Users`, "list", "active"})
	require.False(t, target.NotFound())
	assert.Equal(t, `App\Admin\Users`, target.Controller)
	assert.Equal(t, "list", target.Method)
	assert.Equal(t, []string{"active"}, target.Params)
}

func TestLocatorModuleRootMethodMember(t *testing.T) {
	t.Parallel()

	appDir, roots := fixtureTree(t)
	index := NewModuleIndex(roots, nil)
	require.NoError(t, index.Scan())

	// "archive" is not a controller file but the blog module's own
	// controller exposes it as a method.
	prober := &fakeProber{methods: map[string]bool{"blog@archive": true}}
	l := NewLocator(Config{AppControllerDir: appDir, DefaultController: "home"}, index, prober, nil)

	target := l.Locate(http.MethodGet, []string{"blog", "archive", "2024"})
	require.False(t, target.NotFound())
	assert.Equal(t, StatusModuleRoot, target.Status)
	assert.Equal(t, "blog", target.Controller)
	assert.Equal(t, "archive", target.Method)
	assert.Equal(t, []string{"2024"}, target.Params)
}
