package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "/"},
		{name: "root", in: "/", want: "/"},
		{name: "trailing slash", in: "/users/", want: "/users"},
		{name: "no leading slash", in: "users", want: "/users"},
		{name: "multiple trailing", in: "/users///", want: "/users"},
		{name: "optional placeholder preserved", in: "/posts/{slug}/{page?}", want: "/posts/{slug}/{page?}"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizePath(tt.in))
		})
	}
}

func TestStripQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/users", StripQuery("/users?page=2"))
	assert.Equal(t, "/users", StripQuery("/users"))
	assert.Equal(t, "/", StripQuery("/?a=1"))
}

func TestRouteMatchesStatic(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/users/profile", NamedAction("UserController@profile"), nil)

	info, ok := route.Matches(http.MethodGet, "/users/profile", "")
	require.True(t, ok)
	assert.Empty(t, info.Named)

	_, ok = route.Matches(http.MethodGet, "/users/other", "")
	assert.False(t, ok)

	_, ok = route.Matches(http.MethodPost, "/users/profile", "")
	assert.False(t, ok, "method must match")
}

func TestRouteMatchesTypedParams(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/users/{id}", NamedAction("UserController@show"), nil)

	info, ok := route.Matches(http.MethodGet, "/users/42", "")
	require.True(t, ok)
	assert.Equal(t, "42", info.Named["id"])
	assert.Equal(t, []string{"42"}, info.Positional)
	assert.False(t, info.ByPosition)

	// "id" compiles to the digits-only default pattern.
	_, ok = route.Matches(http.MethodGet, "/users/alice", "")
	assert.False(t, ok)
}

func TestRouteMatchesOptionalSegment(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/posts/{slug}/{page?}", NamedAction("PostController@show"), nil)

	info, ok := route.Matches(http.MethodGet, "/posts/hello-world", "")
	require.True(t, ok)
	assert.Equal(t, "hello-world", info.Named["slug"])
	assert.Empty(t, info.Named["page"])

	info, ok = route.Matches(http.MethodGet, "/posts/hello-world/2", "")
	require.True(t, ok)
	assert.Equal(t, "2", info.Named["page"])
}

func TestRouteWhereOverride(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/files/{name}", NamedAction("FileController@show"), nil)
	route.Where("name", `[a-z]+\.txt`)

	_, ok := route.Matches(http.MethodGet, "/files/notes.txt", "")
	assert.True(t, ok)

	_, ok = route.Matches(http.MethodGet, "/files/notes.pdf", "")
	assert.False(t, ok)
}

func TestRoutePositionalFallback(t *testing.T) {
	t.Parallel()

	// A constraint override carrying its own capture group desynchronizes
	// the capture count from the parameter count; values are then exposed
	// positionally under numeric keys.
	route := NewRoute(http.MethodGet, "/reports/{year}", NamedAction("ReportController@byYear"), nil)
	route.Where("year", `(19|20)\d{2}`)

	info, ok := route.Matches(http.MethodGet, "/reports/2024", "")
	require.True(t, ok)
	assert.True(t, info.ByPosition)
	assert.Equal(t, "2024", info.Named["0"])
	assert.Equal(t, "20", info.Named["1"])
}

func TestRouteMatchesInlinePlaceholder(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/img/photo-{id}.jpg", NamedAction("ImageController@show"), nil)

	info, ok := route.Matches(http.MethodGet, "/img/photo-17.jpg", "")
	require.True(t, ok)
	assert.Equal(t, "17", info.Named["id"])

	_, ok = route.Matches(http.MethodGet, "/img/photo-17.png", "")
	assert.False(t, ok)
}

func TestRouteAnyMethod(t *testing.T) {
	t.Parallel()

	route := NewRoute(MethodAny, "/ping", NamedAction("HealthController@ping"), nil)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		_, ok := route.Matches(method, "/ping", "")
		assert.True(t, ok, method)
	}
}

func TestRouteFreezesAfterFirstMatch(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/users/{id}", NamedAction("UserController@show"), nil)
	_, ok := route.Matches(http.MethodGet, "/users/1", "")
	require.True(t, ok)

	route.Where("id", `[a-z]+`)
	_, ok = route.Matches(http.MethodGet, "/users/abc", "")
	assert.False(t, ok, "builder calls after first match must be ignored")
}

func TestRouteThrottleBuilders(t *testing.T) {
	t.Parallel()

	fixed := NewRoute(http.MethodPost, "/login", NamedAction("AuthController@login"), nil)
	fixed.Throttle(5, time.Minute, "ip")
	require.NotNil(t, fixed.GetRateLimit())
	assert.Empty(t, fixed.GetRateLimit().Algorithm, "plain throttle uses the fixed window")

	smooth := NewRoute(http.MethodPost, "/search", NamedAction("SearchController@query"), nil)
	smooth.ThrottleSmooth(10, time.Minute, "ip")
	require.NotNil(t, smooth.GetRateLimit())
	assert.Equal(t, RateLimitTokenBucket, smooth.GetRateLimit().Algorithm)
	assert.Equal(t, 10, smooth.GetRateLimit().MaxAttempts)
}

func TestRouteDomainConstraint(t *testing.T) {
	t.Parallel()

	route := NewRoute(http.MethodGet, "/dash", NamedAction("DashController@index"), nil)
	route.DomainPattern("admin.example.com")

	_, ok := route.Matches(http.MethodGet, "/dash", "admin.example.com")
	assert.True(t, ok)

	_, ok = route.Matches(http.MethodGet, "/dash", "admin.example.com:8080")
	assert.True(t, ok, "port is stripped before host matching")

	_, ok = route.Matches(http.MethodGet, "/dash", "www.example.com")
	assert.False(t, ok)
}

func TestCompileCacheReuse(t *testing.T) {
	ResetCompileCache()

	a := NewRoute(http.MethodGet, "/orders/{id}", NamedAction("OrderController@show"), nil)
	b := NewRoute(http.MethodGet, "/orders/{id}", NamedAction("OrderController@show"), nil)

	require.NotNil(t, a.regex)
	assert.Same(t, a.regex, b.regex, "identical routes share the memoized compiled form")

	// A differing constraint produces a distinct compiled form.
	c := NewRoute(http.MethodGet, "/orders/{id}", NamedAction("OrderController@show"), nil)
	c.Where("id", `[a-f0-9]+`)
	assert.NotSame(t, a.regex, c.regex)
}
