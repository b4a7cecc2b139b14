package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jczteam/jcz/internal/compressor"
	"github.com/jczteam/jcz/internal/config"
	"github.com/jczteam/jcz/internal/jczerrors"
	"github.com/jczteam/jcz/internal/logging"
	"github.com/jczteam/jcz/internal/pipeline"
)

// Orchestrator validates a batch of CLI-supplied paths, then fans the
// work out across a fixed-size worker pool, one task per input
// (spec §4.5).
type Orchestrator struct {
	pool     *pool
	composer *pipeline.Composer
	log      logging.Logger
}

// New returns an Orchestrator with workerCount goroutines (0 selects
// a CPU-scaled default) driving the given Composer.
func New(workerCount int, composer *pipeline.Composer) *Orchestrator {
	if composer == nil {
		composer = pipeline.New()
	}
	return &Orchestrator{
		pool:     newPool(workerCount),
		composer: composer,
		log:      logging.Default,
	}
}

// ValidateInputs resolves every path to its real (symlink-free) form,
// rejects missing files, and de-duplicates entries that resolve to
// the same real path — two different command-line arguments naming
// the same file via a symlink must not be processed twice (spec §4.5
// edge case).
func ValidateInputs(paths []string) ([]config.InputFile, error) {
	seen := make(map[string]bool, len(paths))
	out := make([]config.InputFile, 0, len(paths))

	for _, p := range paths {
		info, err := os.Lstat(p)
		if err != nil {
			return nil, jczerrors.NewInput(p, "input not found: %v", err)
		}
		wasSymlink := info.Mode()&os.ModeSymlink != 0

		real, err := filepath.EvalSymlinks(p)
		if err != nil {
			return nil, jczerrors.NewInput(p, "failed to resolve path: %v", err)
		}
		real, err = filepath.Abs(real)
		if err != nil {
			return nil, jczerrors.NewInput(p, "failed to resolve absolute path: %v", err)
		}

		if seen[real] {
			continue
		}
		seen[real] = true

		out = append(out, config.InputFile{
			OriginalPath: p,
			RealPath:     real,
			Basename:     filepath.Base(real),
			WasSymlink:   wasSymlink,
		})
	}

	if len(out) == 0 {
		return nil, jczerrors.NewArgument("no input files given")
	}
	return out, nil
}

// RunCompress dispatches one Compress task per input across the
// worker pool and returns every result, successes and failures alike
// (spec P8: a batch never aborts early because one file failed).
func (o *Orchestrator) RunCompress(ctx context.Context, inputs []config.InputFile, format compressor.Format, spec config.CompressionSpec, keys *config.KeyMaterial) []config.BatchResult {
	var password []byte
	if spec.Encryption != nil && spec.Encryption.Password {
		pw, err := PromptPasswordConfirm("Enter encryption password: ", "Confirm password: ")
		if err != nil {
			return failAll(inputs, err)
		}
		defer zeroSlice(pw)
		password = pw
	}

	return runAll(o.pool, inputs, func(in config.InputFile) config.BatchResult {
		out, err := o.composer.Compress(ctx, in, format, spec, password, keys)
		return config.BatchResult{InputPath: in.OriginalPath, OutputPath: out, Err: err}
	})
}

// RunEncryptOnly mirrors RunCompress for the encrypt-only path (-e or
// --encrypt-key without -c).
func (o *Orchestrator) RunEncryptOnly(ctx context.Context, inputs []config.InputFile, spec config.EncryptionSpec, keys *config.KeyMaterial) []config.BatchResult {
	var password []byte
	if spec.Encryption.Password {
		pw, err := PromptPasswordConfirm("Enter encryption password: ", "Confirm password: ")
		if err != nil {
			return failAll(inputs, err)
		}
		defer zeroSlice(pw)
		password = pw
	}

	return runAll(o.pool, inputs, func(in config.InputFile) config.BatchResult {
		out, err := o.composer.EncryptOnly(ctx, in, spec, password, keys)
		return config.BatchResult{InputPath: in.OriginalPath, OutputPath: out, Err: err}
	})
}

// RunDecompress dispatches one Decompress task per input. Per spec
// §5, each task that turns out to need a password acquires the TTY
// mutex and prompts independently — a batch that mixes password- and
// RSA-encrypted containers, or plain compressed files needing no
// decryption at all, never pays for a prompt it doesn't need.
func (o *Orchestrator) RunDecompress(ctx context.Context, paths []string, spec config.DecompressionSpec, keys *config.KeyMaterial) []config.BatchResult {
	allowPassword := spec.Decryption != nil && spec.Decryption.Password

	return runAll(o.pool, paths, func(path string) config.BatchResult {
		var passwordFn func() ([]byte, error)
		if allowPassword {
			passwordFn = func() ([]byte, error) { return PromptPassword("Enter decryption password: ") }
		}
		out, err := o.composer.Decompress(ctx, path, spec, passwordFn, keys)
		return config.BatchResult{InputPath: path, OutputPath: out, Err: err}
	})
}

func failAll(inputs []config.InputFile, err error) []config.BatchResult {
	out := make([]config.BatchResult, len(inputs))
	for i, in := range inputs {
		out[i] = config.BatchResult{InputPath: in.OriginalPath, Err: err}
	}
	return out
}

func zeroSlice(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
