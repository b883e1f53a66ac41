package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesType(t *testing.T) {
	err := NewValidation("price is required")
	wrapped := Wrap(err, "create item failed")

	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsInternal(wrapped))
	assert.Contains(t, wrapped.Error(), "create item failed")
	assert.Contains(t, wrapped.Error(), "price is required")
}

func TestWrapForeignErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("connection reset"), "store call failed")

	assert.True(t, IsInternal(wrapped))
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("gone")))
	assert.True(t, IsConflict(NewConflict("already decided")))
	assert.False(t, IsConflict(NewNotFound("gone")))
	assert.False(t, IsValidation(fmt.Errorf("plain")))
}
