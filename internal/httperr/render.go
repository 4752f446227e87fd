package httperr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the JSON error body: {"error":{...}}.
type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Debug   *debugInfo  `json:"debug,omitempty"`
}

// debugInfo is embedded in the envelope outside of production. It exposes
// the concrete error type, the cause chain, and the stack trace captured
// at the failure point.
type debugInfo struct {
	Type     string `json:"type"`
	Previous string `json:"previous,omitempty"`
	Stack    string `json:"stack,omitempty"`
}

// Render writes the error as a JSON envelope to w. When debug is true the
// envelope carries the error type, the cause chain and the stack trace.
// The stack argument may be empty; it is typically filled by the recovery
// middleware.
func Render(w http.ResponseWriter, err *Error, debug bool, stack string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	for key, value := range err.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(err.Status)

	env := envelope{Error: body{
		Code:    err.Code,
		Message: err.Message,
		Status:  err.Status,
		Data:    err.Data,
	}}

	if debug {
		info := &debugInfo{Type: fmt.Sprintf("%T", err), Stack: stack}
		if err.Cause != nil {
			info.Type = fmt.Sprintf("%T", err.Cause)
			info.Previous = err.Cause.Error()
		}
		env.Error.Debug = info
	}

	// Encoding a plain struct cannot fail unless Data is unmarshalable;
	// fall back to a minimal body in that case.
	if encodeErr := json.NewEncoder(w).Encode(env); encodeErr != nil {
		_, _ = fmt.Fprintf(w, `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode error","status":%d}}`, err.Status)
	}
}
