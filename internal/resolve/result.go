// Package resolve orchestrates hybrid route resolution: the pattern
// router and the legacy segment locator are tried in a configurable
// order, candidates are enriched and validated, and every request
// terminates in a well-formed result, never an error.
package resolve

import "github.com/kodhe/router/internal/router"

// Strategy tags which resolution path produced a result.
type Strategy string

const (
	StrategyModern Strategy = "modern"
	StrategyLegacy Strategy = "legacy"
	StrategyError  Strategy = "error"
)

// Canonical identity of the not-found descriptor.
const (
	NotFoundController = "Errors"
	NotFoundMethod     = "index"
)

// RoutingResult is the resolution output handed to the dispatcher. It
// is created fresh per request and never mutated after hand-off.
type RoutingResult struct {
	Strategy   Strategy          `json:"strategy"`
	Controller string            `json:"controller"`
	Method     string            `json:"method"`
	Params     []string          `json:"params,omitempty"`
	Named      map[string]string `json:"named,omitempty"`
	Middleware []string          `json:"middleware,omitempty"`

	// Enrichment fields.
	Namespace   string `json:"namespace,omitempty"`
	Qualified   string `json:"qualified,omitempty"`
	File        string `json:"file,omitempty"`
	Module      string `json:"module,omitempty"`
	MethodValid bool   `json:"method_valid"`

	Is404 bool   `json:"is_404"`
	Path  string `json:"path"`

	// RouteID and RateLimit carry the matched route's identity and
	// throttle declaration in serializable form. The pipeline reads
	// these, never Route, so a result-cache hit keeps throttling.
	RouteID   string                  `json:"route_id,omitempty"`
	RateLimit *router.RateLimitPolicy `json:"rate_limit,omitempty"`

	// Route is set for modern matches only; it is not serialized into
	// the result cache.
	Route *router.Route `json:"-"`
}

// Valid reports whether the result may be dispatched: either the
// handler check passed or this is the deliberate not-found descriptor.
func (r *RoutingResult) Valid() bool {
	return r != nil && (r.MethodValid || r.Is404)
}

// NotFoundResult builds the canonical 404 descriptor. The original path
// is preserved as the single parameter for diagnostics.
func NotFoundResult(path string) *RoutingResult {
	return &RoutingResult{
		Strategy:    StrategyError,
		Controller:  NotFoundController,
		Method:      NotFoundMethod,
		Params:      []string{path},
		MethodValid: false,
		Is404:       true,
		Path:        path,
	}
}
