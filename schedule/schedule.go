// Package schedule implements the scheduling registry: a record that when
// a trigger service next changes state, a dependent service should also be
// started. Entries live under <state>/scheduled/<trigger>/<dependent> as
// symlinks to the dependent's resolved script.
package schedule

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcsvc/rclib/pathutil"
	"github.com/rcsvc/rclib/rcerr"
	"github.com/rcsvc/rclib/resolve"
)

// Registry manages the <state>/scheduled tree.
type Registry struct {
	StateDir string
	Dirs     resolve.Dirs
}

func (r Registry) dir(trigger string) string {
	return filepath.Join(r.StateDir, "scheduled", trigger)
}

// Start records that dependent should be started the next time trigger
// changes state. dependent must already exist as a service. Re-adding an
// existing entry is success (idempotent).
func (r Registry) Start(trigger, dependent string) error {
	if !r.Dirs.Exists(dependent) {
		return fmt.Errorf("schedule: %q: %w", dependent, rcerr.ErrNotFound)
	}

	dir := r.dir(trigger)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("schedule: mkdir %q: %w", dir, rcerr.ErrIO)
	}

	target, err := r.Dirs.Resolve(dependent)
	if err != nil {
		return err
	}

	file := filepath.Join(dir, dependent)
	if _, err := os.Lstat(file); err == nil {
		return nil
	}

	if err := os.Symlink(target, file); err != nil {
		return fmt.Errorf("schedule: symlink %q: %w", file, rcerr.ErrIO)
	}
	return nil
}

// Clear removes every entry scheduled against trigger. A missing trigger
// directory is success.
func (r Registry) Clear(trigger string) error {
	if err := pathutil.RemoveTree(r.dir(trigger), true); err != nil {
		return fmt.Errorf("schedule: clear %q: %v: %w", trigger, err, rcerr.ErrIO)
	}
	return nil
}

// Scheduled lists the dependents scheduled against trigger.
func (r Registry) Scheduled(trigger string) []string {
	return pathutil.ListDir(r.dir(trigger), pathutil.InitScript)
}

// ScheduledBy returns, for every trigger directory, the full path of its
// entry for dependent, if present. The result deliberately carries full
// paths rather than bare trigger names — inconsistent with its siblings,
// but existing consumers rely on it.
func (r Registry) ScheduledBy(dependent string) []string {
	var out []string
	for _, trigger := range pathutil.ListDir(filepath.Join(r.StateDir, "scheduled"), pathutil.DirOnly) {
		file := filepath.Join(r.dir(trigger), dependent)
		if _, err := os.Lstat(file); err == nil {
			out = append(out, file)
		}
	}
	return out
}

// ClearTargetsOf removes the dependent entry named service from every
// trigger directory, then attempts (non-fatally) to prune each
// now-possibly-empty trigger directory. Called when service enters a
// terminal state (STARTED or STOPPED).
func (r Registry) ClearTargetsOf(service string) {
	root := filepath.Join(r.StateDir, "scheduled")
	for _, trigger := range pathutil.ListDir(root, nil) {
		dir := filepath.Join(root, trigger)
		os.Remove(filepath.Join(dir, service))
		os.Remove(dir) // best-effort; non-empty or missing is not an error here
	}
}
