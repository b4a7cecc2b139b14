package jczerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesPathWhenSet(t *testing.T) {
	err := NewInput("/tmp/missing", "no such file")
	assert.Equal(t, "/tmp/missing: no such file", err.Error())
}

func TestErrorMessageOmitsEmptyPath(t *testing.T) {
	err := NewArgument("bad flag combination")
	assert.Equal(t, "bad flag combination", err.Error())
}

func TestClassificationOfUnwrapsWrappedError(t *testing.T) {
	base := NewIO("/tmp/file", errors.New("disk full"))
	wrapped := fmt.Errorf("during compress: %w", base)

	assert.Equal(t, IO, ClassificationOf(wrapped))
}

func TestClassificationOfReturnsEmptyForForeignError(t *testing.T) {
	assert.Equal(t, Classification(""), ClassificationOf(errors.New("plain error")))
}

func TestErrAuthenticationFailedNeverWrapsCause(t *testing.T) {
	assert.Nil(t, ErrAuthenticationFailed.Unwrap())
	assert.Equal(t, Authentication, ErrAuthenticationFailed.Class)
}

func TestNewToolWrapsUnderlyingError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewTool("/bin/gzip", "gzip: corrupt input", cause)

	assert.Equal(t, Tool, err.Class)
	assert.Same(t, cause, err.Unwrap())
}
