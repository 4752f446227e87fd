package router

import (
	"regexp"
	"strings"
)

// multiLabelTLDs are the recognized compound top-level domains. Domain
// decomposition treats these as a single TLD unit ("co.id", not "id").
var multiLabelTLDs = map[string]struct{}{
	"co.id":  {},
	"co.uk":  {},
	"co.jp":  {},
	"co.nz":  {},
	"co.za":  {},
	"com.au": {},
	"com.br": {},
	"com.cn": {},
	"org.uk": {},
	"net.au": {},
}

// Wildcard is the token matching any non-empty value in a domain position.
const Wildcard = "*"

// DomainConstraint is a decomposed host pattern attached to a route or
// group: optional subdomain (literal, wildcard, or {placeholder}), base
// domain, optional possibly multi-label TLD, and optional port.
type DomainConstraint struct {
	Raw       string
	Subdomain string
	Domain    string
	TLD       string
	Port      string

	regex *regexp.Regexp
}

// ParseDomain decomposes a domain pattern string. The port, if present,
// is split off first; the TLD is recognized greedily (multi-label forms
// first); one leading label beyond domain+TLD is treated as subdomain.
func ParseDomain(pattern string) *DomainConstraint {
	if pattern == "" {
		return nil
	}

	c := &DomainConstraint{Raw: pattern}

	host := pattern
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "}") {
		c.Port = host[i+1:]
		host = host[:i]
	}

	labels := strings.Split(host, ".")

	// Recognize a multi-label TLD from the tail.
	tldLabels := 0
	if len(labels) >= 3 {
		tail := strings.Join(labels[len(labels)-2:], ".")
		if _, ok := multiLabelTLDs[tail]; ok {
			tldLabels = 2
		}
	}
	if tldLabels == 0 && len(labels) >= 2 {
		tldLabels = 1
	}

	switch {
	case len(labels) <= tldLabels:
		c.Domain = host
	case len(labels) == tldLabels+1:
		c.Domain = labels[0]
		c.TLD = strings.Join(labels[1:], ".")
	default:
		c.Subdomain = strings.Join(labels[:len(labels)-tldLabels-1], ".")
		c.Domain = labels[len(labels)-tldLabels-1]
		c.TLD = strings.Join(labels[len(labels)-tldLabels:], ".")
	}

	c.regex = compileHostPattern(host)
	return c
}

// compileHostPattern turns a host pattern into an anchored regex.
// Wildcard labels match one or more non-empty labels; placeholders match
// a single non-empty label and capture it.
func compileHostPattern(host string) *regexp.Regexp {
	labels := strings.Split(host, ".")
	parts := make([]string, 0, len(labels))

	for _, label := range labels {
		switch {
		case label == Wildcard:
			parts = append(parts, `[^.]+(?:\.[^.]+)*`)
		case strings.HasPrefix(label, "{") && strings.HasSuffix(label, "}"):
			name := label[1 : len(label)-1]
			parts = append(parts, `(?P<`+name+`>[^.]+)`)
		default:
			parts = append(parts, regexp.QuoteMeta(label))
		}
	}

	regex, err := regexp.Compile(`^` + strings.Join(parts, `\.`) + `$`)
	if err != nil {
		return nil
	}
	return regex
}

// MatchHost checks a request Host header value against the constraint.
// Any port on the host is stripped before matching.
func (c *DomainConstraint) MatchHost(host string) bool {
	if c == nil {
		return true
	}
	if c.regex == nil {
		return false
	}
	return c.regex.MatchString(StripHostPort(host))
}

// HostParams extracts placeholder values from a matching host. Returns
// nil when the host does not match or the pattern has no placeholders.
func (c *DomainConstraint) HostParams(host string) map[string]string {
	if c == nil || c.regex == nil {
		return nil
	}

	matches := c.regex.FindStringSubmatch(StripHostPort(host))
	if matches == nil {
		return nil
	}

	var params map[string]string
	for i, name := range c.regex.SubexpNames() {
		if i > 0 && name != "" && i < len(matches) {
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = matches[i]
		}
	}
	return params
}

// Host reassembles the constraint into a host string for URL generation,
// substituting placeholder values from params.
func (c *DomainConstraint) Host(params map[string]string) string {
	host := c.Raw
	if c.Port != "" {
		host = strings.TrimSuffix(host, ":"+c.Port)
	}
	for name, value := range params {
		host = strings.ReplaceAll(host, "{"+name+"}", value)
	}
	if c.Port != "" {
		host += ":" + c.Port
	}
	return host
}

// StripHostPort removes the port from a host:port value, tolerating
// bracketed IPv6 hosts.
func StripHostPort(host string) string {
	if host == "" {
		return host
	}
	if strings.HasPrefix(host, "[") {
		if i := strings.LastIndexByte(host, ']'); i >= 0 {
			return host[1:i]
		}
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 && strings.IndexByte(host, ':') == i {
		return host[:i]
	}
	return host
}
