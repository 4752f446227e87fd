// Package dispatch invokes resolved handlers. Handlers are plain
// functions registered under controller and method identifiers; there
// is no reflection, and parameter conversion goes through an explicit
// typed resolution table declared at registration time.
package dispatch

import (
	"net/http"

	"github.com/kodhe/router/internal/httperr"
	"github.com/kodhe/router/internal/resolve"
	"github.com/kodhe/router/internal/router"
)

// HandlerFunc is an invokable handler method. Params carries the typed
// positional parameters, Named the by-name captures.
type HandlerFunc func(r *http.Request, params []interface{}, named map[string]string) (interface{}, error)

// Dispatcher invokes the target named by a routing result.
type Dispatcher interface {
	Dispatch(r *http.Request, result *resolve.RoutingResult) (interface{}, error)
}

// registryDispatcher dispatches against a Registry.
type registryDispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over a handler registry.
func NewDispatcher(registry *Registry) Dispatcher {
	return &registryDispatcher{registry: registry}
}

// Dispatch invokes the resolved target. Inline route actions are called
// directly; everything else goes through the registry.
func (d *registryDispatcher) Dispatch(r *http.Request, result *resolve.RoutingResult) (interface{}, error) {
	if result == nil {
		return nil, httperr.BadRequest("empty routing result")
	}

	if result.Route != nil && result.Route.Action.Type == router.ActionInline {
		return result.Route.Action.Fn(r, result.Named)
	}

	if result.Is404 {
		path := result.Path
		return nil, httperr.NotFound("no route for " + path).WithData(map[string]interface{}{"path": path})
	}

	identifier := result.Qualified
	if identifier == "" {
		identifier = result.Controller
	}

	method, specs, err := d.registry.lookup(identifier, result.Method)
	if err != nil {
		return nil, err
	}

	params, convErr := ResolveParams(specs, result.Params)
	if convErr != nil {
		return nil, httperr.BadRequest(convErr.Error())
	}

	return method(r, params, result.Named)
}
