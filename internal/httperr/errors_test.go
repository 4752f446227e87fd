package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSentinelMatching(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, NotFound("x"), ErrNotFound)
	assert.ErrorIs(t, BadRequest("x"), ErrBadRequest)
	assert.ErrorIs(t, Forbidden("x"), ErrForbidden)
	assert.ErrorIs(t, MethodNotAllowed("x"), ErrMethodNotAllowed)
	assert.ErrorIs(t, NewRateLimitError(5, time.Second), ErrRateLimited)
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	err := Internal("wrapper", cause)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	var structured *Error
	require.ErrorAs(t, wrapped, &structured)
	assert.Equal(t, http.StatusInternalServerError, structured.Status)
}

func TestAsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"nil stays nil", nil, 0, ""},
		{"structured passes through", NotFound("gone"), http.StatusNotFound, "NOT_FOUND"},
		{"rate limit converts", NewRateLimitError(3, 2*time.Second), http.StatusTooManyRequests, "RATE_LIMITED"},
		{"sentinel wrap maps status", fmt.Errorf("lookup: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"unknown becomes internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AsError(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestRateLimitErrorHTTPError(t *testing.T) {
	t.Parallel()

	httpErr := NewRateLimitError(10, 90*time.Second).HTTPError()
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	assert.Equal(t, "90", httpErr.Headers["Retry-After"])

	// Sub-second delays still tell the client to wait.
	httpErr = NewRateLimitError(10, 200*time.Millisecond).HTTPError()
	assert.Equal(t, "1", httpErr.Headers["Retry-After"])
}

func TestRenderEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := NotFound("no such route").WithHeader("X-Hint", "legacy").WithData(map[string]string{"path": "/x"})
	Render(rec, err, false, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "legacy", rec.Header().Get("X-Hint"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no such route", body["error"]["message"])
	assert.Equal(t, "NOT_FOUND", body["error"]["code"])
	_, hasDebug := body["error"]["debug"]
	assert.False(t, hasDebug, "debug block suppressed outside debug mode")
}

func TestRenderDebugBlock(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	cause := errors.New("root cause")
	Render(rec, Internal("wrapper", cause), true, "stacktrace")

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	debug, ok := body["error"]["debug"].(map[string]interface{})
	require.True(t, ok, "debug block present in debug mode")
	assert.Equal(t, "root cause", debug["previous"])
	assert.Equal(t, "stacktrace", debug["stack"])
}
