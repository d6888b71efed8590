// Package runlevel manages the current-runlevel pointer and the transient
// starting/stopping markers under the state database.
package runlevel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcsvc/rclib/pathutil"
	"github.com/rcsvc/rclib/rcerr"
)

// Sysinit is the special pseudo-runlevel reported when no current runlevel
// has ever been recorded. Single is the other pseudo-runlevel; neither
// ever contains services.
const (
	Sysinit = "sysinit"
	Single  = "single"
)

// Registry reads and writes the runlevel bookkeeping rooted at StateDir and
// RunlevelsDir.
type Registry struct {
	StateDir     string // e.g. <state>
	RunlevelsDir string // e.g. <runlevels>
}

// List returns the configured runlevels, sorted, by listing RunlevelsDir
// with the directory-only filter.
func (r Registry) List() []string {
	return pathutil.ListDir(r.RunlevelsDir, pathutil.DirOnly)
}

// Get returns the current runlevel: the first line of <state>/softlevel,
// or Sysinit if the file is absent or empty.
func (r Registry) Get() string {
	data, err := os.ReadFile(filepath.Join(r.StateDir, "softlevel"))
	if err != nil {
		return Sysinit
	}

	level := pathutil.FirstLine(data)
	if level == "" {
		return Sysinit
	}
	return level
}

// Set truncates and rewrites <state>/softlevel with level.
func (r Registry) Set(level string) error {
	path := filepath.Join(r.StateDir, "softlevel")
	if err := os.WriteFile(path, []byte(level), 0644); err != nil {
		return fmt.Errorf("runlevel: set %q: %v: %w", level, err, rcerr.ErrIO)
	}
	return nil
}

// Starting reports whether <state>/rc.starting exists.
func (r Registry) Starting() bool {
	return exists(filepath.Join(r.StateDir, "rc.starting"))
}

// Stopping reports whether <state>/rc.stopping exists.
func (r Registry) Stopping() bool {
	return exists(filepath.Join(r.StateDir, "rc.stopping"))
}

// Exists reports whether level names a configured runlevel directory.
func (r Registry) Exists(level string) bool {
	fi, err := os.Stat(filepath.Join(r.RunlevelsDir, level))
	return err == nil && fi.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
