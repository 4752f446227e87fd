package router

import (
	"fmt"
	"strings"
)

// URLGenerator builds URLs for named routes, substituting parameters
// into the template and honoring domain constraints.
type URLGenerator struct {
	collection *Collection
	scheme     string
	host       string
}

// NewURLGenerator creates a generator over a route table. The scheme and
// host are defaults used when a route has no domain constraint; host may
// be empty, in which case generated URLs are path-relative.
func NewURLGenerator(collection *Collection, scheme, host string) *URLGenerator {
	if scheme == "" {
		scheme = "https"
	}
	return &URLGenerator{collection: collection, scheme: scheme, host: host}
}

// Route generates the URL for a named route. Required parameters must
// all be supplied; optional segments with no value are dropped. Extra
// parameters are ignored.
func (g *URLGenerator) Route(name string, params map[string]string) (string, error) {
	route, ok := g.collection.ByName(name)
	if !ok {
		return "", fmt.Errorf("no route registered under name %q", name)
	}

	path, err := expandTemplate(route.URI, params)
	if err != nil {
		return "", fmt.Errorf("failed to build URL for route %q: %w", name, err)
	}

	host := g.host
	if constraint := route.GetDomain(); constraint != nil {
		host = constraint.Host(params)
	}

	if host == "" {
		return path, nil
	}
	return g.scheme + "://" + host + path, nil
}

// expandTemplate substitutes parameters into a URI template. Optional
// placeholders without a value vanish along with their segment.
func expandTemplate(uri string, params map[string]string) (string, error) {
	segments := strings.Split(strings.Trim(NormalizePath(uri), "/"), "/")

	var out []string
	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if m := placeholderRe.FindStringSubmatch(segment); m != nil {
			name, optional := m[1], m[2] == "?"
			value, ok := params[name]
			if !ok || value == "" {
				if optional {
					continue
				}
				return "", fmt.Errorf("missing required parameter %q", name)
			}
			out = append(out, value)
			continue
		}

		expanded := segment
		var missing error
		expanded = inlinePlaceholderRe.ReplaceAllStringFunc(expanded, func(match string) string {
			name := strings.Trim(match, "{}")
			value, ok := params[name]
			if !ok {
				missing = fmt.Errorf("missing required parameter %q", name)
				return match
			}
			return value
		})
		if missing != nil {
			return "", missing
		}
		out = append(out, expanded)
	}

	if len(out) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(out, "/"), nil
}
