package fmlerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	t.Run("kind only", func(t *testing.T) {
		err := &Error{Kind: ErrNotFound}
		assert.Equal(t, "not found", err.Error())
	})

	t.Run("message, object and attribute", func(t *testing.T) {
		err := New(ErrIncompatibleBind, "argument is not declared").WithObject("ref").WithAttribute("argument")
		assert.Equal(t, `incompatible bind: argument is not declared (object "ref", attribute "argument")`, err.Error())
	})

	t.Run("attribute only", func(t *testing.T) {
		err := New(ErrNotFound, "no object named %q", "x").WithAttribute("valueType")
		assert.Equal(t, `not found: no object named "x" (attribute "valueType")`, err.Error())
	})
}

func TestError_UnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("while parsing: %w", New(ErrRecursiveDefinition, "a -> a"))
	assert.True(t, errors.Is(err, ErrRecursiveDefinition))
	assert.False(t, errors.Is(err, ErrNotFound))

	var fe *Error
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "a -> a", fe.Msg)
}

func TestWithObject_DoesNotMutateReceiver(t *testing.T) {
	base := New(ErrTypeMismatch, "x")
	named := base.WithObject("y")
	assert.Empty(t, base.Object)
	assert.Equal(t, "y", named.Object)
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrUnsupportedIO, Kind(fmt.Errorf("w: %w", New(ErrUnsupportedIO, "bad offset"))))
	assert.Nil(t, Kind(errors.New("plain")))
}
