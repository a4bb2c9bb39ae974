package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPredict(t *testing.T) {
	out, err := execute(t, "predict", "0", "1000",
		"--chunk", "64", "--segment", "64", "--overlap", "8", "--chunks-per-job", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "job windows (4):")
	assert.Contains(t, out, "  0 288\n")
	assert.Contains(t, out, "  280 568\n")
	assert.Contains(t, out, "  560 848\n")
	assert.Contains(t, out, "  840 1000\n")
	assert.Contains(t, out, "output segments (")
	assert.Contains(t, out, "  4 60\n")
}

func TestPredict_InvalidParameters(t *testing.T) {
	_, err := execute(t, "predict", "0", "1000", "--chunk", "64", "--segment", "65")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPredict_BadSpan(t *testing.T) {
	_, err := execute(t, "predict", "1000", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPredict_BadVersion(t *testing.T) {
	_, err := execute(t, "predict", "0", "1000", "--engine-version", "2.2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
