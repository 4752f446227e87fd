package legacy

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RewriteRule is one pattern rewrite from a legacy route-definition
// file: a URI pattern with :any/:num shorthand (and raw capture groups)
// mapped to a target, optionally scoped to a single HTTP verb.
type RewriteRule struct {
	Pattern string
	Target  string
	Method  string // empty matches every verb

	regex *regexp.Regexp
}

// RouteFile is a parsed legacy route-definition file. Besides the
// rewrite rules it carries the reserved configuration keys.
type RouteFile struct {
	DefaultController string
	TranslateDashes   bool
	NotFoundOverride  string
	Rules             []RewriteRule
}

// rawRouteFile mirrors the on-disk YAML shape. Route values are either a
// plain target string or a verb to target map.
type rawRouteFile struct {
	DefaultController string               `yaml:"default_controller"`
	TranslateDashes   bool                 `yaml:"translate_uri_dashes"`
	NotFoundOverride  string               `yaml:"override_404"`
	Routes            map[string]yaml.Node `yaml:"routes"`
}

// ParseRouteFile loads and compiles a legacy route-definition file.
func ParseRouteFile(path string) (*RouteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file %s: %w", path, err)
	}
	return parseRouteFileData(data, path)
}

func parseRouteFileData(data []byte, path string) (*RouteFile, error) {
	var raw rawRouteFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse route file %s: %w", path, err)
	}

	file := &RouteFile{
		DefaultController: raw.DefaultController,
		TranslateDashes:   raw.TranslateDashes,
		NotFoundOverride:  raw.NotFoundOverride,
	}

	for pattern, node := range raw.Routes {
		switch node.Kind {
		case yaml.ScalarNode:
			var target string
			if err := node.Decode(&target); err != nil {
				return nil, fmt.Errorf("invalid route target for %q in %s: %w", pattern, path, err)
			}
			rule, err := NewRewriteRule(pattern, target, "")
			if err != nil {
				return nil, err
			}
			file.Rules = append(file.Rules, *rule)
		case yaml.MappingNode:
			var byVerb map[string]string
			if err := node.Decode(&byVerb); err != nil {
				return nil, fmt.Errorf("invalid route map for %q in %s: %w", pattern, path, err)
			}
			for verb, target := range byVerb {
				rule, err := NewRewriteRule(pattern, target, strings.ToUpper(verb))
				if err != nil {
					return nil, err
				}
				file.Rules = append(file.Rules, *rule)
			}
		default:
			return nil, fmt.Errorf("invalid route value for %q in %s", pattern, path)
		}
	}

	return file, nil
}

// NewRewriteRule compiles a rule. The :any and :num shorthands expand to
// their conventional character classes before the pattern is anchored.
func NewRewriteRule(pattern, target, method string) (*RewriteRule, error) {
	expanded := strings.ReplaceAll(pattern, ":any", `[^/]+`)
	expanded = strings.ReplaceAll(expanded, ":num", `[0-9]+`)

	regex, err := regexp.Compile("^" + strings.Trim(expanded, "/") + "$")
	if err != nil {
		return nil, fmt.Errorf("failed to compile route pattern %q: %w", pattern, err)
	}

	return &RewriteRule{
		Pattern: pattern,
		Target:  target,
		Method:  method,
		regex:   regex,
	}, nil
}

// Apply rewrites a slash-joined segment path. Returns the rewritten
// segments and true when the rule matched, honoring $1-style capture
// references in the target.
func (r *RewriteRule) Apply(method, path string) ([]string, bool) {
	if r.Method != "" && r.Method != strings.ToUpper(method) {
		return nil, false
	}
	if r.regex == nil || !r.regex.MatchString(path) {
		return nil, false
	}

	rewritten := r.regex.ReplaceAllString(path, r.Target)
	return SplitSegments(rewritten), true
}

// SplitSegments splits a path into its non-empty segments.
func SplitSegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
