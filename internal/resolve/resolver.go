package resolve

import (
	"net/http"
	"strings"

	"github.com/kodhe/router/internal/legacy"
	"github.com/kodhe/router/internal/observability/logging"
	"github.com/kodhe/router/internal/router"
)

// HandlerProber is the capability the resolver needs from the dispatch
// collaborator: existence checks for handler identifiers and methods. A
// prober may report a catch-all method for controllers that remap
// unknown methods themselves.
type HandlerProber interface {
	HandlerExists(identifier string) bool
	MethodExists(identifier, method string) bool
}

// Options configures the hybrid resolution order and enrichment.
type Options struct {
	ModernEnabled bool
	LegacyEnabled bool
	// LegacyFirst inverts the default modern-then-legacy order.
	LegacyFirst bool
	// NamespaceRoots are the conventional roots tried during handler
	// identifier derivation.
	NamespaceRoots []string
	// ControllerSuffix, when set, is appended to derived identifiers.
	ControllerSuffix string
	// Cache, when non-nil, stores results keyed by normalized path.
	Cache ResultCache
}

// Resolver turns requests into routing results. Resolution never fails:
// every request terminates in a dispatchable result or the canonical
// not-found descriptor.
type Resolver struct {
	opts       Options
	collection *router.Collection
	locator    *legacy.Locator
	prober     HandlerProber
	strategies []NamingStrategy
	logger     *logging.Logger
}

// NewResolver assembles a hybrid resolver. Either engine may be nil
// when the corresponding option is disabled.
func NewResolver(opts Options, collection *router.Collection, locator *legacy.Locator, prober HandlerProber, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		opts:       opts,
		collection: collection,
		locator:    locator,
		prober:     prober,
		strategies: defaultNamingStrategies(opts.NamespaceRoots),
		logger:     logger,
	}
}

// Resolve resolves one request.
func (r *Resolver) Resolve(req *http.Request) *RoutingResult {
	ctx := req.Context()
	path := router.NormalizePath(req.URL.Path)

	if r.opts.Cache != nil {
		if cached, ok := r.opts.Cache.Get(ctx, path); ok {
			getResolveMetrics().cacheHitsTotal.Inc()
			return cached
		}
	}

	result := r.resolve(req, path)
	getResolveMetrics().resolutionsTotal.WithLabelValues(string(result.Strategy)).Inc()

	if r.opts.Cache != nil && cacheable(result) {
		r.opts.Cache.Set(ctx, path, result)
	}
	return result
}

// cacheable excludes inline-action results: the closure does not survive
// serialization, so a cache hit could not be dispatched.
func cacheable(result *RoutingResult) bool {
	return result.Route == nil || result.Route.Action.Type != router.ActionInline
}

func (r *Resolver) resolve(req *http.Request, path string) *RoutingResult {
	order := []func(*http.Request, string) *RoutingResult{r.resolveModern, r.resolveLegacy}
	if r.opts.LegacyFirst {
		order[0], order[1] = order[1], order[0]
	}

	for _, attempt := range order {
		if result := attempt(req, path); result != nil {
			r.logger.Debug("request resolved",
				logging.Path(path),
				logging.Strategy(string(result.Strategy)),
				logging.Controller(result.Controller),
			)
			return result
		}
	}

	return NotFoundResult(path)
}

// resolveModern matches the pattern router and enriches the hit.
func (r *Resolver) resolveModern(req *http.Request, path string) *RoutingResult {
	if !r.opts.ModernEnabled || r.collection == nil {
		return nil
	}

	route, info, ok := r.collection.MatchPath(req.Method, path, req.Host)
	if !ok {
		return nil
	}

	candidate := &RoutingResult{
		Strategy:   StrategyModern,
		Middleware: route.GetMiddleware(),
		Namespace:  route.GetNamespace(),
		Named:      info.Named,
		Params:     info.Positional,
		Path:       path,
		RouteID:    route.Method + ":" + route.URI,
		RateLimit:  route.GetRateLimit(),
		Route:      route,
	}

	switch route.Action.Type {
	case router.ActionInline:
		// Inline handlers dispatch directly; there is nothing to probe.
		candidate.Controller = "closure"
		candidate.Method = "invoke"
		candidate.MethodValid = true
		return candidate
	case router.ActionNamed:
		controller, method := splitAction(route.Action.Name)
		if controller == "" || method == "" {
			return nil
		}
		candidate.Controller = controller
		candidate.Method = method
	default:
		return nil
	}

	if !r.validate(candidate) {
		return nil
	}
	return candidate
}

// resolveLegacy runs the segment locator and, when it fails, a
// permissive auto-route guess with no filesystem validation.
func (r *Resolver) resolveLegacy(req *http.Request, path string) *RoutingResult {
	if !r.opts.LegacyEnabled || r.locator == nil {
		return nil
	}

	segments := legacy.SplitSegments(path)

	var candidate *RoutingResult
	if target := r.locator.Locate(req.Method, segments); !target.NotFound() {
		candidate = &RoutingResult{
			Strategy:   StrategyLegacy,
			Controller: target.Controller,
			Method:     target.Method,
			Params:     target.Params,
			Module:     target.Module,
			File:       target.File,
			Path:       path,
		}
		if target.Module != "" {
			candidate.Namespace = `Modules\` + capitalizeIdent(target.Module) + `\Controllers`
		}
	} else {
		candidate = autoRoute(segments, path)
	}

	if candidate == nil || !r.validate(candidate) {
		return nil
	}
	return candidate
}

// autoRoute guesses controller and method straight from the segments.
func autoRoute(segments []string, path string) *RoutingResult {
	if len(segments) == 0 {
		return nil
	}
	candidate := &RoutingResult{
		Strategy:   StrategyLegacy,
		Controller: segments[0],
		Method:     "index",
		Path:       path,
	}
	if len(segments) > 1 {
		candidate.Method = segments[1]
	}
	if len(segments) > 2 {
		candidate.Params = segments[2:]
	}
	return candidate
}

// validate derives the fully-qualified identifier and checks handler
// existence. With no prober configured, structural validity is trusted.
func (r *Resolver) validate(candidate *RoutingResult) bool {
	if candidate.Controller == "" || candidate.Method == "" {
		return false
	}

	if r.prober == nil {
		candidate.Qualified = candidate.Controller
		candidate.MethodValid = true
		return true
	}

	// The plain identity first, then the derivation strategies.
	if r.probe(candidate, candidate.Controller) {
		return true
	}
	for _, strategy := range r.strategies {
		identifier := strategy(candidate, r.opts.ControllerSuffix)
		if identifier == "" {
			continue
		}
		if r.probe(candidate, identifier) {
			return true
		}
	}
	return false
}

func (r *Resolver) probe(candidate *RoutingResult, identifier string) bool {
	if !r.prober.HandlerExists(identifier) {
		return false
	}
	if !r.prober.MethodExists(identifier, candidate.Method) {
		return false
	}
	candidate.Qualified = identifier
	candidate.MethodValid = true
	return true
}

// splitAction splits a "Controller@method" action identifier. A bare
// controller defaults to the index method.
func splitAction(action string) (controller, method string) {
	if i := strings.IndexByte(action, '@'); i >= 0 {
		return action[:i], action[i+1:]
	}
	if action == "" {
		return "", ""
	}
	return action, "index"
}
