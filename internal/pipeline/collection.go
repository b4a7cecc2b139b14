package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jczteam/jcz/internal/compressor"
	"github.com/jczteam/jcz/internal/config"
	"github.com/jczteam/jcz/internal/jczerrors"
	"github.com/jczteam/jcz/internal/workspace"
)

// SecondaryFormat is the compressor applied after tar for a collected
// archive (spec §4.4 supplement: .tar.gz/.tar.bz2/.tar.xz compound
// formats, grounded on original_source/operations/collection.rs).
// An empty value means "leave the archive as a plain .tar".
type SecondaryFormat = compressor.Format

// Collect stages inputs into a single tar archive, applies an
// optional secondary compressor, then (if requested) encrypts the
// result — the supplemented Collection-mode operation from
// original_source/operations/collection.rs, adapted to jcz's
// container format and atomic placement rules.
func (c *Composer) Collect(ctx context.Context, inputs []config.InputFile, packageName string, secondary SecondaryFormat, spec config.CollectionSpec, password []byte, keys *config.KeyMaterial) (string, error) {
	if len(inputs) == 0 {
		return "", jczerrors.NewArgument("collection requires at least one input file")
	}
	if err := checkDuplicateBasenames(inputs); err != nil {
		return "", err
	}

	ws, err := workspace.Open()
	if err != nil {
		return "", err
	}
	defer ws.Close()

	stagingDir := ws.Dir()
	if spec.Mode == config.CollectionWithParent {
		stagingDir = ws.Path(packageName)
		if err := os.MkdirAll(stagingDir, 0o755); err != nil {
			return "", jczerrors.NewIO(stagingDir, err)
		}
	}

	for _, in := range inputs {
		dest := filepath.Join(stagingDir, filepath.Base(in.RealPath))
		info, statErr := os.Stat(in.RealPath)
		if statErr != nil {
			return "", jczerrors.NewInput(in.RealPath, "cannot stat input: %v", statErr)
		}
		if info.IsDir() {
			if err := copyDir(in.RealPath, dest); err != nil {
				return "", err
			}
		} else {
			if err := copyFile(in.RealPath, dest); err != nil {
				return "", err
			}
		}
	}

	tarPath := ws.Path(packageName + ".tar")
	tarComp, err := compressor.New(compressor.Tar)
	if err != nil {
		return "", err
	}

	tarInput := stagingDir
	if spec.Mode == config.CollectionFlat {
		// tarCompressor.Compress archives a single path; for flat mode
		// that path is the staging directory itself, same as the
		// WithParent case, but its entries have no package-name
		// wrapper directory above them.
		tarInput = stagingDir
	}
	if err := tarComp.Compress(tarInput, tarPath, 0); err != nil {
		return "", err
	}
	c.Log.Debug(ctx, "collected into tar", "package", packageName, "path", tarPath)

	current := tarPath
	if secondary != "" && secondary != compressor.Tar {
		secComp, err := compressor.New(secondary)
		if err != nil {
			return "", err
		}
		secPath := ws.Path(packageName + ".tar." + secondary.Extension())
		if err := secComp.Compress(tarPath, secPath, spec.Base.Level); err != nil {
			return "", err
		}
		os.Remove(tarPath)
		current = secPath
	}

	destDir := spec.Base.MoveTo
	if destDir == "" {
		destDir = "."
	}
	finalName := filepath.Base(current)
	finalPath := filepath.Join(destDir, finalName)
	if err := checkDestination(finalPath, spec.Base.Force); err != nil {
		return "", err
	}
	if err := copyFile(current, finalPath); err != nil {
		return "", err
	}

	if spec.Base.Encryption == nil {
		return finalPath, nil
	}
	return c.encryptInPlace(finalPath, spec.Base.Encryption, password, keys)
}

func checkDuplicateBasenames(inputs []config.InputFile) error {
	seen := make(map[string]int, len(inputs))
	for _, in := range inputs {
		seen[filepath.Base(in.RealPath)]++
	}
	var dupes []string
	for name, count := range seen {
		if count > 1 {
			dupes = append(dupes, name)
		}
	}
	if len(dupes) > 0 {
		sort.Strings(dupes)
		return jczerrors.NewArgument("duplicate basenames in collection: %s", fmt.Sprint(dupes))
	}
	return nil
}
