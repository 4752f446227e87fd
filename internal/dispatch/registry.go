package dispatch

import (
	"strings"
	"sync"

	"github.com/kodhe/router/internal/httperr"
)

// methodEntry is one registered handler method with its parameter table.
type methodEntry struct {
	fn     HandlerFunc
	params []ParamSpec
	hidden bool
}

// controllerEntry groups a controller's methods plus an optional
// catch-all that remaps unknown method names.
type controllerEntry struct {
	methods  map[string]methodEntry
	catchAll *methodEntry
}

// Registry maps controller and method identifiers to handler functions.
// It also serves as the handler-existence prober for the resolver and
// the legacy locator.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*controllerEntry
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*controllerEntry)}
}

// Register adds a handler method. Method names are matched
// case-insensitively; specs declare the typed positional parameters.
func (reg *Registry) Register(controller, method string, fn HandlerFunc, specs ...ParamSpec) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entry := reg.controllers[controller]
	if entry == nil {
		entry = &controllerEntry{methods: make(map[string]methodEntry)}
		reg.controllers[controller] = entry
	}
	entry.methods[strings.ToLower(method)] = methodEntry{fn: fn, params: specs}
}

// RegisterHidden adds a method excluded from routing: it exists on the
// controller but resolving a request to it yields forbidden.
func (reg *Registry) RegisterHidden(controller, method string, fn HandlerFunc, specs ...ParamSpec) {
	reg.Register(controller, method, fn, specs...)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	entry := reg.controllers[controller].methods[strings.ToLower(method)]
	entry.hidden = true
	reg.controllers[controller].methods[strings.ToLower(method)] = entry
}

// RegisterCatchAll adds a controller-level remap handler invoked for
// any method name the controller does not declare.
func (reg *Registry) RegisterCatchAll(controller string, fn HandlerFunc, specs ...ParamSpec) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entry := reg.controllers[controller]
	if entry == nil {
		entry = &controllerEntry{methods: make(map[string]methodEntry)}
		reg.controllers[controller] = entry
	}
	entry.catchAll = &methodEntry{fn: fn, params: specs}
}

// HandlerExists implements the prober contract.
func (reg *Registry) HandlerExists(identifier string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.controllers[identifier]
	return ok
}

// MethodExists implements the prober contract. A controller with a
// catch-all accepts every method name.
func (reg *Registry) MethodExists(identifier, method string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	entry, ok := reg.controllers[identifier]
	if !ok {
		return false
	}
	if m, ok := entry.methods[strings.ToLower(method)]; ok {
		return !m.hidden
	}
	return entry.catchAll != nil
}

// lookup returns the handler for an identifier and method.
func (reg *Registry) lookup(identifier, method string) (HandlerFunc, []ParamSpec, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	entry, ok := reg.controllers[identifier]
	if !ok {
		return nil, nil, httperr.NotFound("handler " + identifier + " is not registered")
	}

	if m, ok := entry.methods[strings.ToLower(method)]; ok {
		if m.hidden {
			return nil, nil, httperr.Forbidden("method " + method + " is not routable")
		}
		return m.fn, m.params, nil
	}
	if entry.catchAll != nil {
		return entry.catchAll.fn, entry.catchAll.params, nil
	}
	return nil, nil, httperr.NotFound("method " + method + " is not registered on " + identifier)
}
