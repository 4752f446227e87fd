// Package router implements the pattern-compiled half of the hybrid
// router: route registration with groups, URI template compilation,
// ordered matching, named-route indexing, URL generation, and the
// on-disk route snapshot cache.
//
// Routes are registered through a Registry during a single-writer
// registration phase. After registration, matching against the
// Collection is read-only; routes freeze on first match.
package router
