package workspace

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDirectory(t *testing.T) {
	ws, err := Open()
	require.NoError(t, err)
	defer ws.Close()

	info, err := os.Stat(ws.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestTwoWorkspacesNeverCollide(t *testing.T) {
	ws1, err := Open()
	require.NoError(t, err)
	defer ws1.Close()

	ws2, err := Open()
	require.NoError(t, err)
	defer ws2.Close()

	assert.NotEqual(t, ws1.Dir(), ws2.Dir())
}

func TestPathJoinsOntoRoot(t *testing.T) {
	ws, err := Open()
	require.NoError(t, err)
	defer ws.Close()

	p := ws.Path("nested/file.txt")
	assert.Contains(t, p, ws.Dir())
}

func TestCloseIsIdempotentAndRemovesDirectory(t *testing.T) {
	ws, err := Open()
	require.NoError(t, err)
	dir := ws.Dir()

	require.NoError(t, ws.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ws.Close())
}
