package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// go test's stdin is not a terminal, so both prompt functions must
// fail fast with an argument-classified error rather than block.
func TestPromptPasswordRejectsNonTerminalStdin(t *testing.T) {
	_, err := PromptPassword("password: ")
	assert.Error(t, err)
}

func TestPromptPasswordConfirmRejectsNonTerminalStdin(t *testing.T) {
	_, err := PromptPasswordConfirm("password: ", "confirm: ")
	assert.Error(t, err)
}
