package dispatch

import (
	"fmt"
	"strconv"
)

// ParamKind is a declared parameter type.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamInt
	ParamFloat
	ParamBool
)

// ParamSpec declares one positional parameter of a handler method.
type ParamSpec struct {
	Name     string
	Kind     ParamKind
	Optional bool
}

// String returns a string parameter spec.
func String(name string) ParamSpec { return ParamSpec{Name: name, Kind: ParamString} }

// Int returns an integer parameter spec.
func Int(name string) ParamSpec { return ParamSpec{Name: name, Kind: ParamInt} }

// Float returns a float parameter spec.
func Float(name string) ParamSpec { return ParamSpec{Name: name, Kind: ParamFloat} }

// Bool returns a boolean parameter spec.
func Bool(name string) ParamSpec { return ParamSpec{Name: name, Kind: ParamBool} }

// Optional marks a spec optional: a missing value passes nil instead of
// failing resolution.
func (s ParamSpec) AsOptional() ParamSpec {
	s.Optional = true
	return s
}

// ResolveParams converts raw positional string values through the
// declared table. With no table declared, values pass through as
// strings. Surplus raw values beyond the table are appended unchanged.
func ResolveParams(specs []ParamSpec, raw []string) ([]interface{}, error) {
	if len(specs) == 0 {
		out := make([]interface{}, len(raw))
		for i, v := range raw {
			out[i] = v
		}
		return out, nil
	}

	out := make([]interface{}, 0, len(raw))
	for i, spec := range specs {
		if i >= len(raw) {
			if spec.Optional {
				out = append(out, nil)
				continue
			}
			return nil, fmt.Errorf("missing parameter %q", spec.Name)
		}

		value, err := convertParam(spec, raw[i])
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}

	for i := len(specs); i < len(raw); i++ {
		out = append(out, raw[i])
	}
	return out, nil
}

func convertParam(spec ParamSpec, raw string) (interface{}, error) {
	switch spec.Kind {
	case ParamInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q must be an integer, got %q", spec.Name, raw)
		}
		return n, nil
	case ParamFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q must be a number, got %q", spec.Name, raw)
		}
		return f, nil
	case ParamBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q must be a boolean, got %q", spec.Name, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}
