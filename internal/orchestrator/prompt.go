package orchestrator

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/jczteam/jcz/internal/jczerrors"
	"github.com/jczteam/jcz/internal/secure"
)

// ttyMutex serializes every password prompt. Spec §5: "if a task needs
// a password, it acquires the mutex, prompts, and releases" — each
// decompression task that meets a password container prompts
// independently, so concurrent password-protected tasks never
// interleave their prompts on the same terminal. Encryption batches
// instead read one password up front, before dispatching any task.
var ttyMutex sync.Mutex

// PromptPassword reads a password from the controlling terminal with
// echo disabled, holding ttyMutex for the duration of the prompt.
// Returns an error if stdin is not a terminal (spec §6: password
// prompting requires an interactive session; batch/scripted use must
// supply a key file instead).
func PromptPassword(prompt string) ([]byte, error) {
	ttyMutex.Lock()
	defer ttyMutex.Unlock()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, jczerrors.NewArgument("password required but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, jczerrors.NewIO("", err)
	}
	if len(pw) == 0 {
		return nil, jczerrors.NewArgument("password cannot be empty")
	}
	return pw, nil
}

// PromptPasswordConfirm reads and confirms a new password, for
// encryption (as opposed to decryption, which only reads once).
func PromptPasswordConfirm(prompt, confirmPrompt string) ([]byte, error) {
	ttyMutex.Lock()
	defer ttyMutex.Unlock()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, jczerrors.NewArgument("password required but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	p1, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, jczerrors.NewIO("", err)
	}
	if len(p1) == 0 {
		return nil, jczerrors.NewArgument("password cannot be empty")
	}

	fmt.Fprint(os.Stderr, confirmPrompt)
	p2, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		secure.Zero(p1)
		return nil, jczerrors.NewIO("", err)
	}
	defer secure.Zero(p2)

	if len(p1) != len(p2) || subtle.ConstantTimeCompare(p1, p2) != 1 {
		secure.Zero(p1)
		return nil, errors.New("passwords do not match")
	}
	return p1, nil
}
