package router

import "sync"

// Default named patterns available to every route template. A `{id}`
// placeholder compiles to the "id" pattern unless the route overrides it
// with Where.
var defaultPatterns = map[string]string{
	"id":   `\d+`,
	"num":  `\d+`,
	"slug": `[a-z0-9-]+`,
	"uuid": `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"any":  `[^/]+`,
}

// PatternTable holds the named placeholder patterns for one Registry.
type PatternTable struct {
	mu       sync.RWMutex
	patterns map[string]string
}

// NewPatternTable creates a table seeded with the default patterns.
func NewPatternTable() *PatternTable {
	patterns := make(map[string]string, len(defaultPatterns))
	for name, pattern := range defaultPatterns {
		patterns[name] = pattern
	}
	return &PatternTable{patterns: patterns}
}

// Register adds or replaces a named pattern.
func (t *PatternTable) Register(name, pattern string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.patterns[name] = pattern
}

// Lookup returns the pattern for a placeholder name.
func (t *PatternTable) Lookup(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pattern, ok := t.patterns[name]
	return pattern, ok
}
