package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputsResolvesRealPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hi"), 0o600))

	inputs, err := ValidateInputs([]string{file})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, file, inputs[0].OriginalPath)
	assert.Equal(t, "a.txt", inputs[0].Basename)
	assert.False(t, inputs[0].WasSymlink)
}

func TestValidateInputsDedupsSymlinkToSameRealPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hi"), 0o600))

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(file, link))

	inputs, err := ValidateInputs([]string{file, link})
	require.NoError(t, err)
	assert.Len(t, inputs, 1)
}

func TestValidateInputsMarksSymlink(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hi"), 0o600))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(file, link))

	inputs, err := ValidateInputs([]string{link})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.True(t, inputs[0].WasSymlink)
}

func TestValidateInputsRejectsMissingPath(t *testing.T) {
	_, err := ValidateInputs([]string{"/nonexistent/path/does/not/exist"})
	require.Error(t, err)
}

func TestValidateInputsRejectsEmptyList(t *testing.T) {
	_, err := ValidateInputs(nil)
	require.Error(t, err)
}
