package pipeline

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/kodhe/router/internal/httperr"
	"github.com/kodhe/router/internal/observability/logging"
	"github.com/kodhe/router/internal/ratelimit"
	"github.com/kodhe/router/internal/resolve"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// Recovery converts a panic anywhere later in the chain into an
// internal error instead of tearing down the request.
func Recovery(logger *logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(next Handler) Handler {
		return func(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (value interface{}, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						logging.Method(r.Method),
						logging.Path(r.URL.Path),
						logging.Any("panic", rec),
						logging.String("stack", string(debug.Stack())),
					)
					value = nil
					err = httperr.Internal(fmt.Sprintf("panic: %v", rec), nil)
				}
			}()
			return next(w, r, result)
		}
	}
}

// RequestID assigns a correlation id when the client did not send one
// and echoes it on the response.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return func(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (interface{}, error) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(RequestIDHeader, id)
			}
			w.Header().Set(RequestIDHeader, id)
			return next(w, r, result)
		}
	}
}

// AccessLog logs one structured line per request with the resolution
// strategy and latency.
func AccessLog(logger *logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(next Handler) Handler {
		return func(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (interface{}, error) {
			start := time.Now()
			value, err := next(w, r, result)

			strategy := ""
			controller := ""
			if result != nil {
				strategy = string(result.Strategy)
				controller = result.Controller
			}
			logger.Info("request handled",
				logging.Method(r.Method),
				logging.Path(r.URL.Path),
				logging.Strategy(strategy),
				logging.Controller(controller),
				logging.Latency(time.Since(start)),
				logging.RequestID(r.Header.Get(RequestIDHeader)),
			)
			return value, err
		}
	}
}

// RateLimit enforces the matched route's throttle policy. Requests over
// budget fail with 429 and a Retry-After value. The policy is read from
// the result's serialized descriptor, not the Route pointer, so results
// rehydrated from a shared cache still throttle.
func RateLimit(throttler *ratelimit.Throttler) Middleware {
	return func(next Handler) Handler {
		return func(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (interface{}, error) {
			if result == nil || result.RateLimit == nil {
				return next(w, r, result)
			}
			policy := result.RateLimit

			check, err := throttler.Check(r.Context(), r, result.RouteID, ratelimit.Policy{
				MaxAttempts: policy.MaxAttempts,
				Decay:       policy.Decay,
				KeyStrategy: policy.KeyStrategy,
				Algorithm:   policy.Algorithm,
			})
			if err != nil {
				// A broken counter store must not take the route down.
				return next(w, r, result)
			}
			if !check.Allowed {
				return nil, httperr.NewRateLimitError(check.Limit, check.RetryAfter)
			}
			return next(w, r, result)
		}
	}
}
