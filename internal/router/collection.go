package router

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Collection is the route table: compiled routes in registration order
// plus a name index. Registration order is a de facto priority; the
// first structural match wins, so more specific literal routes must be
// registered before looser ones.
type Collection struct {
	mu       sync.RWMutex
	routes   []*Route
	byName   map[string]*Route
	basePath string
}

// NewCollection creates an empty route table.
func NewCollection() *Collection {
	return &Collection{byName: make(map[string]*Route)}
}

// SetBasePath configures a deployment prefix stripped from request paths
// before matching (for deployments not at the web root).
func (c *Collection) SetBasePath(basePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basePath = strings.TrimSuffix(basePath, "/")
}

// Add appends a route. Registering a duplicate (method, URI) pair is a
// no-op: the first registration wins. The name index is refreshed
// lazily, so names assigned after Add are still honored.
func (c *Collection) Add(route *Route) {
	if route == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.routes {
		if existing.Method == route.Method && existing.URI == route.URI {
			return
		}
	}

	c.routes = append(c.routes, route)
	if name := route.GetName(); name != "" {
		c.byName[name] = route
	}
}

// Len returns the number of registered routes.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}

// Routes returns a snapshot of the registered routes.
func (c *Collection) Routes() []*Route {
	c.mu.RLock()
	defer c.mu.RUnlock()
	routes := make([]*Route, len(c.routes))
	copy(routes, c.routes)
	return routes
}

// ByName returns a named route. The name index is last-registration-wins,
// independent of the duplicate-URI rule.
func (c *Collection) ByName(name string) (*Route, bool) {
	c.mu.RLock()
	route, ok := c.byName[name]
	c.mu.RUnlock()
	if ok {
		return route, true
	}

	// Names may be assigned through the builder after Add; reindex once.
	c.ReindexNames()

	c.mu.RLock()
	defer c.mu.RUnlock()
	route, ok = c.byName[name]
	return route, ok
}

// ReindexNames rebuilds the name index from the current routes.
// Collisions overwrite silently: the last registration wins.
func (c *Collection) ReindexNames() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byName = make(map[string]*Route, len(c.routes))
	for _, route := range c.routes {
		if name := route.GetName(); name != "" {
			c.byName[name] = route
		}
	}
}

// Match scans the table in registration order for the first route
// matching the request. The request path is normalized (query stripped,
// single leading slash, no trailing slash, base path removed).
func (c *Collection) Match(req *http.Request) (*Route, *MatchInfo, bool) {
	return c.MatchPath(req.Method, req.URL.Path, req.Host)
}

// MatchPath is Match for a pre-extracted method/path/host triple.
func (c *Collection) MatchPath(method, path, host string) (*Route, *MatchInfo, bool) {
	metrics := getRouterMetrics()
	start := time.Now()

	c.mu.RLock()
	routes := c.routes
	basePath := c.basePath
	c.mu.RUnlock()

	normalized := NormalizePath(StripQuery(path))
	if basePath != "" && strings.HasPrefix(normalized, basePath) {
		normalized = NormalizePath(strings.TrimPrefix(normalized, basePath))
	}

	for _, route := range routes {
		if info, ok := route.Matches(method, normalized, host); ok {
			metrics.matchesTotal.WithLabelValues("hit").Inc()
			metrics.matchDuration.Observe(time.Since(start).Seconds())
			return route, info, true
		}
	}

	metrics.matchesTotal.WithLabelValues("miss").Inc()
	metrics.matchDuration.Observe(time.Since(start).Seconds())
	return nil, nil, false
}

// Clear removes every route and resets the name index. Used by test
// teardown and cache invalidation.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = nil
	c.byName = make(map[string]*Route)
}
