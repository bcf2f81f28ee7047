package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := stderrors.New("driver timeout")
	err := NewInternalError("store unavailable").WithCause(cause).WithComponent("entity_store")

	assert.Equal(t, "store unavailable: driver timeout", err.Error())
	assert.Equal(t, "entity_store", err.Component)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapErrorPreservesAppError(t *testing.T) {
	original := NewNotFoundError("listing")
	wrapped := WrapError(fmt.Errorf("outer: %w", original), "should not replace")
	assert.Same(t, original, wrapped)

	plain := WrapError(stderrors.New("boom"), "context")
	assert.Equal(t, ErrorTypeInternal, plain.Type)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotAuthenticated, http.StatusUnauthorized},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrTokenInvalid, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrUnknownKind, http.StatusNotFound},
		{ErrEmailTaken, http.StatusConflict},
		{ErrQueryUnsupported, http.StatusFailedDependency},
		{ErrUploadFailed, http.StatusBadGateway},
		{ErrInvalidInput, http.StatusBadRequest},
		{stderrors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "error %v", tc.err)
	}

	// Wrapped sentinels must keep their mapping.
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("get listing: %w", ErrNotFound)))
	assert.Equal(t, http.StatusFailedDependency, HTTPStatus(NewQueryError("composite index missing")))
}

func TestClassifiers(t *testing.T) {
	require.True(t, IsNotFound(NewNotFoundError("review")))
	require.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrNotFound)))
	require.False(t, IsNotFound(ErrPermissionDenied))

	require.True(t, IsNotAuthenticated(ErrNotAuthenticated))
	require.True(t, IsNotAuthenticated(NewAuthenticationError("no session")))
	require.False(t, IsNotAuthenticated(ErrNotFound))

	require.True(t, IsPermissionDenied(NewAuthorizationError("not the owner")))
	require.True(t, IsQueryUnsupported(NewQueryError("missing index")))
	require.False(t, IsQueryUnsupported(ErrUploadFailed))
}

func TestDetails(t *testing.T) {
	err := NewValidationError("bad payload").WithDetail("field", "price")
	assert.Equal(t, "price", err.Details["field"])
}
