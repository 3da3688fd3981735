package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesOperationAndKind(t *testing.T) {
	err := New(NotFound, "get_agent", nil)
	assert.Contains(t, err.Error(), "get_agent")
	assert.Contains(t, err.Error(), string(NotFound))
}

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(StorageError, "create_web", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsKindMatchesWrappedError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(BoundExceeded, "spawn", nil))
	assert.True(t, IsKind(err, BoundExceeded))
	assert.False(t, IsKind(err, Timeout))
}

func TestIsKindFalseForPlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain"), NotFound))
}
