package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitFailure, "workflow failed")
	assert.Equal(t, "workflow failed", err.Error())
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestWrapExitError(t *testing.T) {
	cause := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "cannot load configuration", cause)
	assert.Equal(t, "cannot load configuration: no such file", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, cause)
}

func TestGetExitCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "bad flag"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode_PlainError(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
}
