package pipeline

import (
	"sync"

	"github.com/kodhe/router/internal/observability/logging"
)

// Registry maps middleware identifiers to implementations. Routes
// declare middleware as strings; the registry resolves them when the
// chain is built.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Middleware
	logger  *logging.Logger
}

// NewRegistry creates an empty middleware registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		entries: make(map[string]Middleware),
		logger:  logger,
	}
}

// Register adds or replaces a named middleware.
func (reg *Registry) Register(name string, m Middleware) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.entries[name] = m
}

// Resolve turns declared references into middleware. A reference may be
// a registered name, a slice of references (an inline anonymous group),
// or an already-constructed Middleware. Unresolved references are
// logged and skipped so one bad declaration never aborts the chain.
func (reg *Registry) Resolve(refs []interface{}) []Middleware {
	var out []Middleware
	for _, ref := range refs {
		switch v := ref.(type) {
		case string:
			reg.mu.RLock()
			m, ok := reg.entries[v]
			reg.mu.RUnlock()
			if !ok {
				reg.logger.Warn("unresolved middleware skipped", logging.Middleware(v))
				continue
			}
			out = append(out, m)
		case []interface{}:
			out = append(out, reg.Resolve(v)...)
		case []string:
			out = append(out, reg.Resolve(Refs(v...))...)
		case Middleware:
			out = append(out, v)
		case func(Handler) Handler:
			out = append(out, v)
		default:
			reg.logger.Warn("invalid middleware reference skipped",
				logging.Any("reference", ref),
			)
		}
	}
	return out
}

// Refs converts middleware name strings to a reference slice.
func Refs(names ...string) []interface{} {
	refs := make([]interface{}, len(names))
	for i, name := range names {
		refs[i] = name
	}
	return refs
}
