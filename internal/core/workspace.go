package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// workspacePrefix marks scratch namespaces so the janitor only touches its own.
const workspacePrefix = "job-"

// Workspace is a per-job scratch directory under the scratch root.
// Each job gets its own uuid-named directory, so concurrent jobs never
// share file names.
type Workspace struct {
	ID  string
	Dir string
}

// NewWorkspace creates a fresh namespace under root, creating root if needed.
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(root, workspacePrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release removes the workspace and everything in it. Failures are logged,
// not returned; the janitor picks up anything left behind.
func (w *Workspace) Release() {
	if w == nil {
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		slog.Warn("failed to remove workspace", "workspace", w.ID, "dir", w.Dir, "error", err)
	}
}
