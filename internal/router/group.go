package router

import (
	"strings"

	"github.com/kodhe/router/internal/observability/logging"
)

// GroupAttributes is one frame on the group stack: the shared state a
// group contributes to every route registered inside it.
type GroupAttributes struct {
	Prefix     string
	Middleware []string
	Namespace  string
	NamePrefix string
	Wheres     map[string]string
	Subdomain  string
	Domain     string
	Version    *APIVersion
}

// GroupStack is the push/pop stack of merged group frames used during
// registration. It is mutated only during the single-writer registration
// phase.
type GroupStack struct {
	frames []GroupAttributes
	logger *logging.Logger
}

// NewGroupStack creates an empty stack.
func NewGroupStack(logger *logging.Logger) *GroupStack {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GroupStack{logger: logger}
}

// Open pushes a new frame merged with the current one.
func (s *GroupStack) Open(attrs GroupAttributes) {
	s.frames = append(s.frames, mergeAttributes(s.Current(), attrs))
}

// Close pops to the parent frame. Closing an empty stack is a
// recoverable condition: the stack resets to defaults.
func (s *GroupStack) Close() {
	if len(s.frames) == 0 {
		s.logger.Debug("group stack closed while empty; resetting to defaults")
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the current nesting depth.
func (s *GroupStack) Depth() int {
	return len(s.frames)
}

// Current returns the active frame, or a zero frame when no group is open.
func (s *GroupStack) Current() GroupAttributes {
	if len(s.frames) == 0 {
		return GroupAttributes{}
	}
	return s.frames[len(s.frames)-1]
}

// Apply folds the active frame into route-construction state: the full
// URI, the inherited middleware (outer first), and the namespace.
func (s *GroupStack) Apply(uri string) (fullURI string, middleware []string, namespace string) {
	current := s.Current()
	fullURI = joinPrefix(current.Prefix, uri)
	middleware = append(middleware, current.Middleware...)
	namespace = current.Namespace
	return fullURI, middleware, namespace
}

// mergeAttributes merges a child frame onto its parent:
//
//   - prefix: parent/child joined with "/"
//   - middleware: concatenated, outer first, duplicates allowed
//   - namespace: joined with "\"
//   - name prefix: plain concatenation
//   - constraints: shallow merge, child wins on collision
//   - subdomain/domain/version: child overrides only when explicitly set
func mergeAttributes(parent, child GroupAttributes) GroupAttributes {
	merged := GroupAttributes{
		Prefix:     joinPrefix(parent.Prefix, child.Prefix),
		NamePrefix: parent.NamePrefix + child.NamePrefix,
		Subdomain:  parent.Subdomain,
		Domain:     parent.Domain,
		Version:    parent.Version,
	}

	merged.Middleware = make([]string, 0, len(parent.Middleware)+len(child.Middleware))
	merged.Middleware = append(merged.Middleware, parent.Middleware...)
	merged.Middleware = append(merged.Middleware, child.Middleware...)

	switch {
	case parent.Namespace != "" && child.Namespace != "":
		merged.Namespace = parent.Namespace + `\` + child.Namespace
	case child.Namespace != "":
		merged.Namespace = child.Namespace
	default:
		merged.Namespace = parent.Namespace
	}

	if len(parent.Wheres) > 0 || len(child.Wheres) > 0 {
		merged.Wheres = make(map[string]string, len(parent.Wheres)+len(child.Wheres))
		for param, pattern := range parent.Wheres {
			merged.Wheres[param] = pattern
		}
		for param, pattern := range child.Wheres {
			merged.Wheres[param] = pattern
		}
	}

	if child.Subdomain != "" {
		merged.Subdomain = child.Subdomain
	}
	if child.Domain != "" {
		merged.Domain = child.Domain
	}
	if child.Version != nil {
		merged.Version = child.Version
	}

	return merged
}

// joinPrefix joins two URI prefixes with a single slash.
func joinPrefix(parent, child string) string {
	parent = strings.Trim(parent, "/")
	child = strings.Trim(child, "/")
	switch {
	case parent != "" && child != "":
		return parent + "/" + child
	case parent != "":
		return parent
	default:
		return child
	}
}

// AutoName derives a deterministic route name from a normalized URI:
// non-alphanumeric runs collapse to a single dot, lower-cased, leading
// and trailing dots trimmed. An empty URI names the route "home".
func AutoName(uri string) string {
	var b strings.Builder
	lastDot := false
	for _, ch := range strings.ToLower(uri) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
			lastDot = false
			continue
		}
		if !lastDot {
			b.WriteByte('.')
			lastDot = true
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" {
		return "home"
	}
	return name
}

// domainConstraint assembles a DomainConstraint from the frame's
// subdomain and domain fields, or nil when no constraint is set.
func (a GroupAttributes) domainConstraint() *DomainConstraint {
	switch {
	case a.Domain == "" && a.Subdomain == "":
		return nil
	case a.Subdomain == "":
		return ParseDomain(a.Domain)
	case a.Domain == "":
		return nil
	default:
		return ParseDomain(a.Subdomain + "." + a.Domain)
	}
}
