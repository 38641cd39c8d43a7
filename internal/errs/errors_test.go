package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	plain := New(ErrKindNotFound, "schema not found")
	assert.Equal(t, "[not_found] schema not found", plain.Error())

	wrapped := Wrap(ErrKindTimeout, "save timed out", context.DeadlineExceeded)
	assert.Equal(t, "[timeout] save timed out: context deadline exceeded", wrapped.Error())
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"invalid input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"unauthenticated", New(ErrKindUnauthenticated, "x"), IsUnauthenticated},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrKindNotFound, "x")), IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(New(ErrKindConnectionFailed, "down")))
	assert.True(t, IsTransient(New(ErrKindQueryFailed, "tx")))
	assert.False(t, IsTransient(New(ErrKindInvalidInput, "bad")))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
}

func TestNewf(t *testing.T) {
	err := Newf(ErrKindInvalidInput, "node %d has no id", 3)
	assert.Equal(t, "node 3 has no id", err.Message)
	assert.Equal(t, "invalid_input", err.Kind.String())
}
