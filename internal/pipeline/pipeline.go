// Package pipeline executes the middleware chain around a terminal
// handler and turns every failure into a structured HTTP response.
package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kodhe/router/internal/httperr"
	"github.com/kodhe/router/internal/observability/logging"
	"github.com/kodhe/router/internal/resolve"
)

// Handler is one link of the chain: it produces a response value or an
// error for the request.
type Handler func(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (interface{}, error)

// Middleware wraps a handler. Each middleware decides whether and when
// to invoke the next link.
type Middleware func(next Handler) Handler

// ExceptionHandler gets first chance at a chain error. Returning true
// consumes the error; false (or a panic) falls through to the default
// rendering.
type ExceptionHandler func(w http.ResponseWriter, r *http.Request, err error) bool

// Options configures a pipeline.
type Options struct {
	// Debug embeds stack traces and cause details in error bodies.
	Debug bool
	// DisableExceptionHandling propagates chain errors to the caller
	// unchanged instead of rendering them.
	DisableExceptionHandling bool
	// ExceptionHandler, when set, runs before default error rendering.
	ExceptionHandler ExceptionHandler
}

// Pipeline composes middleware around terminal handlers and renders
// results and errors.
type Pipeline struct {
	registry *Registry
	opts     Options
	logger   *logging.Logger
}

// New creates a pipeline over a middleware registry.
func New(registry *Registry, opts Options, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	return &Pipeline{registry: registry, opts: opts, logger: logger}
}

// Run executes the chain for one request: the declared middleware wrap
// the terminal handler right to left, so they execute in declaration
// order. The chain's return value is normalized onto the response and
// errors are mapped to structured HTTP error bodies.
func (p *Pipeline) Run(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult, refs []interface{}, terminal Handler) error {
	chain := terminal
	resolved := p.registry.Resolve(refs)
	for i := len(resolved) - 1; i >= 0; i-- {
		chain = resolved[i](chain)
	}

	value, err := p.invoke(chain, w, r, result)
	if err != nil {
		return p.handleError(w, r, err, len(resolved))
	}

	return WriteResult(w, value)
}

// invoke runs the chain, converting panics into errors.
func (p *Pipeline) invoke(chain Handler, w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (value interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("panic in handler chain",
				logging.Method(r.Method),
				logging.Path(r.URL.Path),
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())),
			)
			err = httperr.Internal(fmt.Sprintf("panic: %v", rec), nil)
		}
	}()
	return chain(w, r, result)
}

// handleError maps a chain error to an HTTP response.
func (p *Pipeline) handleError(w http.ResponseWriter, r *http.Request, err error, middlewareCount int) error {
	if p.opts.ExceptionHandler != nil && p.runExceptionHandler(w, r, err) {
		return nil
	}

	if p.opts.DisableExceptionHandling {
		return err
	}

	httpErr := httperr.AsError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		// Generic failures carry chain context for diagnostics.
		httpErr = httpErr.WithData(map[string]interface{}{
			"middleware_count": middlewareCount,
			"method":           r.Method,
			"path":             r.URL.Path,
		})
		p.logger.Error("handler chain failed",
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			logging.Err(err),
		)
	}

	var stack string
	if p.opts.Debug {
		stack = string(debug.Stack())
	}
	httperr.Render(w, httpErr, p.opts.Debug, stack)
	return nil
}

// runExceptionHandler shields the pipeline from a faulty custom
// handler: its panic falls through to default handling.
func (p *Pipeline) runExceptionHandler(w http.ResponseWriter, r *http.Request, err error) (handled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Warn("custom exception handler failed",
				logging.Any("panic", rec),
			)
			handled = false
		}
	}()
	return p.opts.ExceptionHandler(w, r, err)
}

// WriteResult normalizes a chain return value onto the response:
// nil writes nothing, structured values become JSON, everything else
// becomes the literal string body.
func WriteResult(w http.ResponseWriter, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err := w.Write([]byte(v))
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	case error:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err := w.Write([]byte(v.Error()))
		return err
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		return json.NewEncoder(w).Encode(v)
	}
}
