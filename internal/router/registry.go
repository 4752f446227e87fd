package router

import (
	"net/http"

	"github.com/kodhe/router/internal/observability/logging"
)

// Registry is the fluent route registration surface. It owns the route
// table, the group stack, and the named pattern table for one router
// instance; there is no ambient global registry.
type Registry struct {
	collection *Collection
	stack      *GroupStack
	patterns   *PatternTable
	logger     *logging.Logger
}

// NewRegistry creates a registry with an empty route table.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		collection: NewCollection(),
		stack:      NewGroupStack(logger),
		patterns:   NewPatternTable(),
		logger:     logger,
	}
}

// Collection returns the underlying route table.
func (r *Registry) Collection() *Collection {
	return r.collection
}

// Pattern registers a global named placeholder pattern.
func (r *Registry) Pattern(name, pattern string) {
	r.patterns.Register(name, pattern)
}

// Patterns returns the registry's named pattern table.
func (r *Registry) Patterns() *PatternTable {
	return r.patterns
}

// Get registers a GET route.
func (r *Registry) Get(uri string, action interface{}) *Route {
	return r.Register(http.MethodGet, uri, action)
}

// Post registers a POST route.
func (r *Registry) Post(uri string, action interface{}) *Route {
	return r.Register(http.MethodPost, uri, action)
}

// Put registers a PUT route.
func (r *Registry) Put(uri string, action interface{}) *Route {
	return r.Register(http.MethodPut, uri, action)
}

// Patch registers a PATCH route.
func (r *Registry) Patch(uri string, action interface{}) *Route {
	return r.Register(http.MethodPatch, uri, action)
}

// Delete registers a DELETE route.
func (r *Registry) Delete(uri string, action interface{}) *Route {
	return r.Register(http.MethodDelete, uri, action)
}

// Options registers an OPTIONS route.
func (r *Registry) Options(uri string, action interface{}) *Route {
	return r.Register(http.MethodOptions, uri, action)
}

// Head registers a HEAD route.
func (r *Registry) Head(uri string, action interface{}) *Route {
	return r.Register(http.MethodHead, uri, action)
}

// Any registers a route matching every HTTP method.
func (r *Registry) Any(uri string, action interface{}) *Route {
	return r.Register(MethodAny, uri, action)
}

// Register registers a route for an explicit method. The action may be a
// "Controller@method" string, an InlineHandler, or an Action value.
func (r *Registry) Register(method, uri string, action interface{}) *Route {
	fullURI, middleware, namespace := r.stack.Apply(uri)
	attrs := r.stack.Current()

	route := NewRoute(method, fullURI, toAction(action), r.patterns)
	route.namePrefix = attrs.NamePrefix
	if attrs.NamePrefix != "" {
		route.fallbackName = AutoName(route.URI)
	}

	if len(attrs.Wheres) > 0 {
		route.WhereMap(attrs.Wheres)
	}
	if len(middleware) > 0 {
		route.Middleware(middleware...)
	}
	if namespace != "" {
		route.Prefix(namespace)
	}
	if constraint := attrs.domainConstraint(); constraint != nil {
		route.domain = constraint
		route.recompile()
	}
	if attrs.Version != nil {
		version := *attrs.Version
		route.version = &version
	}

	r.collection.Add(route)
	return route
}

// Group opens a group frame for the duration of fn. Attributes merge
// with the enclosing frame; the frame is popped when fn returns.
func (r *Registry) Group(attrs GroupAttributes, fn func(*Registry)) {
	r.stack.Open(attrs)
	defer r.stack.Close()
	fn(r)
}

// toAction coerces the registration action argument.
func toAction(action interface{}) Action {
	switch a := action.(type) {
	case Action:
		return a
	case string:
		return NamedAction(a)
	case InlineHandler:
		return InlineAction(a)
	case func(req *http.Request, params map[string]string) (interface{}, error):
		return InlineAction(a)
	default:
		return Action{}
	}
}
