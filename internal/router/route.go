package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MethodAny matches every HTTP method.
const MethodAny = "ANY"

// defaultParamPattern is substituted for untyped placeholders.
const defaultParamPattern = `[^/]+`

// Rate-limit algorithms understood by the throttling layer.
const (
	RateLimitFixedWindow = "fixed_window"
	RateLimitTokenBucket = "token_bucket"
)

// RateLimitPolicy is the per-route throttle declaration: at most
// MaxAttempts requests per Decay window, counted under KeyStrategy
// ("ip", "header:<name>", "endpoint"). Algorithm selects the limiter
// implementation; empty means fixed window. The policy is serializable
// so it survives a result-cache round trip.
type RateLimitPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	Decay       time.Duration `json:"decay"`
	KeyStrategy string        `json:"key_strategy,omitempty"`
	Algorithm   string        `json:"algorithm,omitempty"`
}

// APIVersion carries version metadata attached to a route or group.
type APIVersion struct {
	Version    string
	Deprecated bool
	Sunset     string
	Headers    map[string]string
}

// MatchInfo is the outcome of a successful route match.
type MatchInfo struct {
	// Named maps parameter names to captured values in template order.
	Named map[string]string

	// Positional holds the captured values in order of appearance.
	Positional []string

	// ByPosition is set when the capture-group count disagreed with the
	// parameter-name count and values are only exposed positionally.
	// This mirrors the behavior of the original engine for malformed
	// constraint overrides.
	ByPosition bool

	// ParamOrder lists the parameter names in template order.
	ParamOrder []string
}

// Route is one registered modern route. It is configured through
// builder-style calls during registration and freezes on first match.
type Route struct {
	Method string
	URI    string
	Action Action

	middleware   []string
	name         string
	namePrefix   string
	fallbackName string
	wheres       map[string]string
	namespace    string
	domain       *DomainConstraint
	rateLimit    *RateLimitPolicy
	version      *APIVersion

	patterns   *PatternTable
	regex      *regexp.Regexp
	paramNames []string
	frozen     atomic.Bool
}

// NewRoute creates a compiled route. Compilation errors surface lazily:
// a route whose template fails to compile never matches.
func NewRoute(method, uri string, action Action, patterns *PatternTable) *Route {
	if patterns == nil {
		patterns = NewPatternTable()
	}
	r := &Route{
		Method:   strings.ToUpper(method),
		URI:      NormalizePath(uri),
		Action:   action,
		wheres:   make(map[string]string),
		patterns: patterns,
	}
	r.recompile()
	return r
}

// Middleware appends middleware identifiers to the route.
func (r *Route) Middleware(identifiers ...string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.middleware = append(r.middleware, identifiers...)
	r.recompile()
	return r
}

// Name sets the route name. The group name-prefix active at
// registration time is prepended to explicit names.
func (r *Route) Name(name string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.name = r.namePrefix + name
	r.recompile()
	return r
}

// Where sets a per-parameter pattern override and recompiles.
func (r *Route) Where(param, pattern string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.wheres[param] = pattern
	r.recompile()
	return r
}

// WhereMap sets several parameter overrides at once.
func (r *Route) WhereMap(constraints map[string]string) *Route {
	if r.frozen.Load() {
		return r
	}
	for param, pattern := range constraints {
		r.wheres[param] = pattern
	}
	r.recompile()
	return r
}

// Prefix sets the namespace prefix used during handler-name derivation.
func (r *Route) Prefix(namespace string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.namespace = namespace
	r.recompile()
	return r
}

// DomainPattern constrains the route to a host pattern. The pattern may
// carry a wildcard subdomain ("*"), a placeholder ("{tenant}"), and a
// multi-label TLD.
func (r *Route) DomainPattern(pattern string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.domain = ParseDomain(pattern)
	r.recompile()
	return r
}

// Throttle attaches a fixed-window rate-limit policy.
func (r *Route) Throttle(maxAttempts int, decay time.Duration, keyStrategy string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.rateLimit = &RateLimitPolicy{MaxAttempts: maxAttempts, Decay: decay, KeyStrategy: keyStrategy}
	return r
}

// ThrottleSmooth attaches a token-bucket policy: bursts up to
// maxAttempts, with tokens refilled evenly over decay instead of
// hard-cutting at window boundaries.
func (r *Route) ThrottleSmooth(maxAttempts int, decay time.Duration, keyStrategy string) *Route {
	if r.frozen.Load() {
		return r
	}
	r.rateLimit = &RateLimitPolicy{
		MaxAttempts: maxAttempts,
		Decay:       decay,
		KeyStrategy: keyStrategy,
		Algorithm:   RateLimitTokenBucket,
	}
	return r
}

// Version attaches API version metadata.
func (r *Route) Version(v APIVersion) *Route {
	if r.frozen.Load() {
		return r
	}
	r.version = &v
	return r
}

// GetName returns the effective route name: the explicit name when one
// was set, otherwise the auto-generated fallback (present only for
// routes registered under a name-prefixed group).
func (r *Route) GetName() string {
	if r.name != "" {
		return r.name
	}
	return r.fallbackName
}

// GetMiddleware returns the declared middleware identifiers.
func (r *Route) GetMiddleware() []string { return r.middleware }

// GetNamespace returns the namespace prefix.
func (r *Route) GetNamespace() string { return r.namespace }

// GetDomain returns the domain constraint, or nil.
func (r *Route) GetDomain() *DomainConstraint { return r.domain }

// GetRateLimit returns the rate-limit policy, or nil.
func (r *Route) GetRateLimit() *RateLimitPolicy { return r.rateLimit }

// GetVersion returns the API version metadata, or nil.
func (r *Route) GetVersion() *APIVersion { return r.version }

// ParamNames returns the parameter names in template order.
func (r *Route) ParamNames() []string { return r.paramNames }

// Matches checks the route against a normalized request. The host is
// only consulted when the route declares a domain constraint; ports are
// stripped before matching. The first successful match freezes the route.
func (r *Route) Matches(method, path, host string) (*MatchInfo, bool) {
	if r.regex == nil {
		return nil, false
	}

	if r.Method != MethodAny && r.Method != strings.ToUpper(method) {
		return nil, false
	}

	if r.domain != nil && !r.domain.MatchHost(host) {
		return nil, false
	}

	matches := r.regex.FindStringSubmatch(NormalizePath(path))
	if matches == nil {
		return nil, false
	}

	r.frozen.Store(true)

	captures := matches[1:]
	info := &MatchInfo{
		Positional: make([]string, len(captures)),
		ParamOrder: r.paramNames,
	}
	copy(info.Positional, captures)

	if len(captures) != len(r.paramNames) {
		// Capture/parameter count mismatch (malformed constraint
		// override with its own groups): expose positionally only.
		info.ByPosition = true
		info.Named = make(map[string]string, len(captures))
		for i, value := range captures {
			info.Named[strconv.Itoa(i)] = value
		}
		return info, true
	}

	info.Named = make(map[string]string, len(captures))
	for i, name := range r.paramNames {
		info.Named[name] = captures[i]
	}
	return info, true
}

// cacheKey derives the compile-cache key from everything that influences
// the compiled form or the route's logical identity.
func (r *Route) cacheKey() string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('|')
	b.WriteString(r.URI)
	b.WriteByte('|')
	b.WriteString(r.Action.identity())
	b.WriteByte('|')
	b.WriteString(r.name)
	b.WriteByte('|')
	b.WriteString(r.namespace)
	b.WriteByte('|')
	b.WriteString(strings.Join(r.middleware, ","))
	b.WriteByte('|')
	b.WriteString(sortedConstraints(r.wheres))
	if r.domain != nil {
		b.WriteByte('|')
		b.WriteString(r.domain.Raw)
	}
	return b.String()
}

// recompile rebuilds the anchored regex and parameter list, reusing a
// memoized form for logically identical routes.
func (r *Route) recompile() {
	key := r.cacheKey()
	if regex, names, ok := compileCacheLookup(key); ok {
		r.regex = regex
		r.paramNames = names
		return
	}

	regex, names, err := compileTemplate(r.URI, r.wheres, r.patterns)
	if err != nil {
		// A route with an uncompilable template never matches.
		r.regex = nil
		r.paramNames = nil
		return
	}

	r.regex = regex
	r.paramNames = names
	compileCacheStore(key, regex, names)
}

// placeholderRe matches a whole-segment placeholder, optionally marked
// optional with a trailing "?".
var placeholderRe = regexp.MustCompile(`^\{(\w+)(\?)?\}$`)

// inlinePlaceholderRe matches placeholders embedded inside a segment.
var inlinePlaceholderRe = regexp.MustCompile(`\{(\w+)\}`)

// compileTemplate turns a URI template into an anchored regex plus the
// parameter names in order of appearance. Whole-segment placeholders may
// be optional ("{page?}"); optional segments swallow their leading slash.
func compileTemplate(uri string, wheres map[string]string, patterns *PatternTable) (*regexp.Regexp, []string, error) {
	normalized := NormalizePath(uri)

	var b strings.Builder
	b.WriteString("^")

	var names []string

	if normalized == "/" {
		b.WriteString("/")
	} else {
		for _, segment := range strings.Split(strings.Trim(normalized, "/"), "/") {
			if segment == "" {
				continue
			}

			if m := placeholderRe.FindStringSubmatch(segment); m != nil {
				name, optional := m[1], m[2] == "?"
				pattern := paramPattern(name, wheres, patterns)
				names = append(names, name)
				if optional {
					b.WriteString(`(?:/(` + pattern + `))?`)
				} else {
					b.WriteString(`/(` + pattern + `)`)
				}
				continue
			}

			b.WriteString("/")
			b.WriteString(compileSegment(segment, wheres, patterns, &names))
		}
	}

	b.WriteString("$")

	regex, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile route template %q: %w", uri, err)
	}
	return regex, names, nil
}

// compileSegment compiles a segment mixing literal text and placeholders.
func compileSegment(segment string, wheres map[string]string, patterns *PatternTable, names *[]string) string {
	var b strings.Builder
	last := 0
	for _, loc := range inlinePlaceholderRe.FindAllStringSubmatchIndex(segment, -1) {
		b.WriteString(regexp.QuoteMeta(segment[last:loc[0]]))
		name := segment[loc[2]:loc[3]]
		*names = append(*names, name)
		b.WriteString(`(` + paramPattern(name, wheres, patterns) + `)`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(segment[last:]))
	return b.String()
}

// paramPattern resolves the pattern for a placeholder: per-route override
// first, then the named pattern table, then the default.
func paramPattern(name string, wheres map[string]string, patterns *PatternTable) string {
	if pattern, ok := wheres[name]; ok && pattern != "" {
		return pattern
	}
	if pattern, ok := patterns.Lookup(name); ok {
		return pattern
	}
	return defaultParamPattern
}

// sortedConstraints renders the override map deterministically.
func sortedConstraints(wheres map[string]string) string {
	if len(wheres) == 0 {
		return ""
	}
	keys := make([]string, 0, len(wheres))
	for key := range wheres {
		keys = append(keys, key)
	}
	// Small maps; insertion sort keeps this allocation-light.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(wheres[key])
		b.WriteByte(';')
	}
	return b.String()
}

// NormalizePath collapses a path to a single leading slash and no
// trailing slash; the root path normalizes to "/". Query strings are
// not touched here: registered URI templates legitimately contain '?'
// in optional placeholders like {page?}, so query stripping belongs on
// the request side (see StripQuery).
func NormalizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}
	return "/" + path
}

// StripQuery removes a query string from a raw request path. Applied to
// incoming request paths only, never to URI templates.
func StripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// compileCacheMaxSize bounds the compile memoization table.
const compileCacheMaxSize = 1000

type compileCacheEntry struct {
	regex       *regexp.Regexp
	paramNames  []string
	accessOrder int64
}

var (
	compileCache         = make(map[string]*compileCacheEntry)
	compileCacheMu       sync.RWMutex
	compileAccessCounter int64
)

func compileCacheLookup(key string) (*regexp.Regexp, []string, bool) {
	compileCacheMu.Lock()
	defer compileCacheMu.Unlock()

	entry, ok := compileCache[key]
	if !ok {
		return nil, nil, false
	}
	compileAccessCounter++
	entry.accessOrder = compileAccessCounter
	return entry.regex, entry.paramNames, true
}

func compileCacheStore(key string, regex *regexp.Regexp, paramNames []string) {
	compileCacheMu.Lock()
	defer compileCacheMu.Unlock()

	if len(compileCache) >= compileCacheMaxSize {
		evictLRUCompileEntry()
	}

	compileAccessCounter++
	compileCache[key] = &compileCacheEntry{
		regex:       regex,
		paramNames:  paramNames,
		accessOrder: compileAccessCounter,
	}
}

// evictLRUCompileEntry removes the least recently used entry.
// Must be called with compileCacheMu held.
func evictLRUCompileEntry() {
	var lruKey string
	var lruOrder int64 = -1

	for key, entry := range compileCache {
		if lruOrder == -1 || entry.accessOrder < lruOrder {
			lruOrder = entry.accessOrder
			lruKey = key
		}
	}

	if lruKey != "" {
		delete(compileCache, lruKey)
	}
}

// ResetCompileCache clears the compile memoization table. Tests use this
// between cases; production processes rebuild the table naturally.
func ResetCompileCache() {
	compileCacheMu.Lock()
	defer compileCacheMu.Unlock()
	compileCache = make(map[string]*compileCacheEntry)
	compileAccessCounter = 0
}
