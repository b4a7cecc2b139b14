package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jczteam/jcz/internal/config"
)

func TestCheckDuplicateBasenamesDetectsCollision(t *testing.T) {
	inputs := []config.InputFile{
		{RealPath: "/a/one.txt"},
		{RealPath: "/b/one.txt"},
	}
	err := checkDuplicateBasenames(inputs)
	assert.Error(t, err)
}

func TestCheckDuplicateBasenamesAllowsDistinctNames(t *testing.T) {
	inputs := []config.InputFile{
		{RealPath: "/a/one.txt"},
		{RealPath: "/b/two.txt"},
	}
	assert.NoError(t, checkDuplicateBasenames(inputs))
}
