package resolve

import "strings"

// NamingStrategy produces one candidate fully-qualified handler
// identifier from a resolution candidate, or "" when it does not apply.
// Strategies are pure; they are tried in order against the prober until
// one resolves.
type NamingStrategy func(candidate *RoutingResult, suffix string) string

// defaultNamingStrategies is the fixed candidate order: an already
// qualified name, the declared namespace, the configured conventional
// roots, then a module-derived namespace.
func defaultNamingStrategies(roots []string) []NamingStrategy {
	strategies := []NamingStrategy{
		qualifiedNameStrategy,
		namespaceStrategy,
	}
	for _, root := range roots {
		strategies = append(strategies, rootStrategy(root))
	}
	strategies = append(strategies, moduleStrategy)
	return strategies
}

// qualifiedNameStrategy accepts a controller that already carries a
// namespace separator.
func qualifiedNameStrategy(candidate *RoutingResult, suffix string) string {
	if !strings.Contains(candidate.Controller, `\`) {
		return ""
	}
	return withSuffix(candidate.Controller, suffix)
}

// namespaceStrategy joins the candidate's declared namespace with the
// controller name.
func namespaceStrategy(candidate *RoutingResult, suffix string) string {
	if candidate.Namespace == "" {
		return ""
	}
	return withSuffix(candidate.Namespace+`\`+capitalizeIdent(candidate.Controller), suffix)
}

// rootStrategy tries one conventional namespace root.
func rootStrategy(root string) NamingStrategy {
	return func(candidate *RoutingResult, suffix string) string {
		return withSuffix(strings.TrimSuffix(root, `\`)+`\`+capitalizeIdent(candidate.Controller), suffix)
	}
}

// moduleStrategy derives the namespace from the owning module.
func moduleStrategy(candidate *RoutingResult, suffix string) string {
	if candidate.Module == "" {
		return ""
	}
	return withSuffix(`Modules\`+capitalizeIdent(candidate.Module)+`\Controllers\`+capitalizeIdent(candidate.Controller), suffix)
}

func withSuffix(identifier, suffix string) string {
	if suffix != "" && !strings.HasSuffix(identifier, suffix) {
		return identifier + suffix
	}
	return identifier
}

func capitalizeIdent(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
