package strata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closer struct {
	opened bool
	fail   error
}

func (c *closer) open() error {
	c.opened = true
	return c.fail
}

func (c *closer) reset() {
	c.opened = false
}

func init() {
	RegisterMethod("strata.closer.open", (*closer).open)
	RegisterMethod("strata.closer.reset", (*closer).reset)
}

func TestMethodHandleInvoke(t *testing.T) {
	h := NewMethodHandle("strata.closer.open")
	c := &closer{}

	require.NoError(t, h.Invoke(c))
	assert.True(t, c.opened)

	require.NoError(t, NewMethodHandle("strata.closer.reset").Invoke(c))
	assert.False(t, c.opened)
}

func TestMethodHandleReturnsMethodError(t *testing.T) {
	boom := errors.New("boom")
	err := NewMethodHandle("strata.closer.open").Invoke(&closer{fail: boom})

	assert.ErrorIs(t, err, boom)
}

func TestMethodHandleErrors(t *testing.T) {
	t.Run("unregistered", func(t *testing.T) {
		h := NewMethodHandle("strata.missing")
		assert.ErrorIs(t, h.Invoke(&closer{}), ErrMethodNotRegistered)
		// the failed resolution is cached too
		assert.ErrorIs(t, h.Invoke(&closer{}), ErrMethodNotRegistered)
	})

	t.Run("wrong receiver", func(t *testing.T) {
		err := NewMethodHandle("strata.closer.open").Invoke("not a closer")
		assert.Error(t, err)
	})
}

func TestRegisterMethodRejectsBadInput(t *testing.T) {
	assert.Panics(t, func() { RegisterMethod("strata.bad", 42) })
	assert.Panics(t, func() { RegisterMethod("strata.closer.open", (*closer).open) })
}
