package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load intervals")

	require.ErrorContains(t, err, "connection refused")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.ErrorIs(t, err, err) // sanity: Error implements error
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "no such interval")))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain error")))

	// Wrapped twice: outermost code wins.
	inner := New(CodePrecondition, "window length must be positive")
	outer := Wrap(inner, CodeInternal, "evaluation failed")
	assert.Equal(t, CodeInternal, CodeOf(outer))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:    http.StatusBadRequest,
		CodeInvalidInterval: http.StatusBadRequest,
		CodePrecondition:    http.StatusBadRequest,
		CodeNotFound:        http.StatusNotFound,
		CodeConflict:        http.StatusConflict,
		CodeUnauthorized:    http.StatusUnauthorized,
		CodeInternal:        http.StatusInternalServerError,
		Code("unknown"):     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
