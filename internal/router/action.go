package router

import "net/http"

// ActionType tags the variant carried by an Action.
type ActionType string

const (
	// ActionNamed is a serializable "Controller@method" identifier.
	ActionNamed ActionType = "handler"

	// ActionInline is an in-process function value. Inline actions are
	// not serializable and do not survive a cache cycle.
	ActionInline ActionType = "closure"

	// ActionNone marks an action slot emptied by the cache (an inline
	// action that was dropped during serialization).
	ActionNone ActionType = "null"
)

// InlineHandler is the function form of a route action. It receives the
// request and the extracted route parameters and returns a response
// value for the pipeline to normalize.
type InlineHandler func(r *http.Request, params map[string]string) (interface{}, error)

// Action is the target of a route: either a named handler identifier or
// an inline function.
type Action struct {
	Type ActionType
	Name string
	Fn   InlineHandler
}

// NamedAction creates an action referencing a handler by identifier,
// conventionally "Controller@method".
func NamedAction(identifier string) Action {
	return Action{Type: ActionNamed, Name: identifier}
}

// InlineAction creates an action from a function value.
func InlineAction(fn InlineHandler) Action {
	return Action{Type: ActionInline, Fn: fn}
}

// IsZero reports whether the action is unset.
func (a Action) IsZero() bool {
	return a.Type == "" || (a.Type == ActionNamed && a.Name == "") || (a.Type == ActionInline && a.Fn == nil)
}

// Serializable reports whether the action survives a cache round trip.
func (a Action) Serializable() bool {
	return a.Type == ActionNamed
}

// identity returns a stable string for compile-cache keys. Inline
// actions are intentionally collapsed to a single token: their identity
// does not influence compilation.
func (a Action) identity() string {
	switch a.Type {
	case ActionNamed:
		return "handler:" + a.Name
	case ActionInline:
		return "closure"
	default:
		return "null"
	}
}
