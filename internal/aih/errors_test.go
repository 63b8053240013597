package aih

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapStorage(t *testing.T) {
	assert.NoError(t, wrapStorage("op", nil))

	nf := &NotFoundError{Entity: "aih", Key: 3}
	assert.Same(t, nf, wrapStorage("op", nf))
	assert.ErrorIs(t, wrapStorage("op", fmt.Errorf("tx: %w", ErrDuplicateRecord)), ErrDuplicateRecord)

	io := errors.New("disk I/O error")
	err := wrapStorage("submit movement", io)
	var se *StorageError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "submit movement", se.Op)
	assert.ErrorIs(t, err, io)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(&SequenceViolation{}))
}

func TestNotFoundError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &NotFoundError{Entity: "glosa", Key: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, &NotFoundError{Entity: "glosa", Key: 1}, "glosa 1 not found")
}
