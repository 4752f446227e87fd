package logging

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Standard field keys used across router log entries.
const (
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldHost       = "host"
	FieldClientIP   = "client_ip"
	FieldStatusCode = "status_code"
	FieldLatency    = "latency"

	FieldRoute      = "route"
	FieldStrategy   = "strategy"
	FieldController = "controller"
	FieldModule     = "module"
	FieldMiddleware = "middleware"

	FieldError     = "error"
	FieldComponent = "component"
)

// RequestID creates a request ID field.
func RequestID(id string) zap.Field {
	return zap.String(FieldRequestID, id)
}

// Method creates a method field.
func Method(method string) zap.Field {
	return zap.String(FieldMethod, method)
}

// Path creates a path field.
func Path(path string) zap.Field {
	return zap.String(FieldPath, path)
}

// Host creates a host field.
func Host(host string) zap.Field {
	return zap.String(FieldHost, host)
}

// StatusCode creates a status code field.
func StatusCode(code int) zap.Field {
	return zap.Int(FieldStatusCode, code)
}

// Latency creates a latency field.
func Latency(d time.Duration) zap.Field {
	return zap.Duration(FieldLatency, d)
}

// Route creates a route name field.
func Route(name string) zap.Field {
	return zap.String(FieldRoute, name)
}

// Strategy creates a resolution strategy field ("modern", "legacy", "error").
func Strategy(strategy string) zap.Field {
	return zap.String(FieldStrategy, strategy)
}

// Controller creates a controller identifier field.
func Controller(name string) zap.Field {
	return zap.String(FieldController, name)
}

// Module creates a module name field.
func Module(name string) zap.Field {
	return zap.String(FieldModule, name)
}

// Middleware creates a middleware identifier field.
func Middleware(name string) zap.Field {
	return zap.String(FieldMiddleware, name)
}

// Component creates a component field.
func Component(name string) zap.Field {
	return zap.String(FieldComponent, name)
}

// Err creates an error field.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// HTTPRequestFields extracts standard fields from an HTTP request.
func HTTPRequestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		Method(r.Method),
		Path(r.URL.Path),
		Host(r.Host),
	}

	if q := r.URL.RawQuery; q != "" {
		fields = append(fields, zap.String("query", q))
	}

	return fields
}

// String creates a string field.
func String(key, value string) zap.Field {
	return zap.String(key, value)
}

// Int creates an int field.
func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Bool creates a bool field.
func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// Strings creates a string slice field.
func Strings(key string, value []string) zap.Field {
	return zap.Strings(key, value)
}

// Any creates a field with any value.
func Any(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}
