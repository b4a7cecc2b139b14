// Package workspace implements the Isolated Workspace component
// (spec §4.6): a scoped temporary directory used by the Pipeline
// Composer while iteratively peeling compression and encryption
// layers off a container, with a guaranteed cleanup on every exit
// path.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jczteam/jcz/internal/jczerrors"
)

// Workspace is a single scratch directory, unique per batch task, torn
// down by Close regardless of how the caller exits (success, error, or
// panic via a deferred Close right after Open).
type Workspace struct {
	dir string
}

// Open creates a fresh, uniquely named temporary directory under the
// OS default temp location. Naming uses a random UUID rather than a
// PID or counter so two concurrent worker-pool tasks never collide
// (spec §5: tasks run in their own goroutines with no shared mutable
// filesystem state except the TTY mutex).
func Open() (*Workspace, error) {
	base, err := os.MkdirTemp("", "jcz-"+uuid.NewString()+"-")
	if err != nil {
		return nil, jczerrors.NewIO("", err)
	}
	return &Workspace{dir: base}, nil
}

// Dir returns the workspace's root directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything under it. Safe to call
// more than once.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	if err != nil {
		return jczerrors.NewIO("", err)
	}
	return nil
}
