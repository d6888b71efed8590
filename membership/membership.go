// Package membership manages which services belong to which runlevel, and
// answers the "what services exist in this state/runlevel" listing queries.
// Membership is represented by symlinks under <runlevels>/<level>/ pointing
// at the service's init script.
package membership

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcsvc/rclib/pathutil"
	"github.com/rcsvc/rclib/rcerr"
	"github.com/rcsvc/rclib/resolve"
	"github.com/rcsvc/rclib/runlevel"
	"github.com/rcsvc/rclib/svcstate"
)

// Boot is the only runlevel that restricts which scripts can be added to
// it: membership is only granted to services whose script lives directly
// in the primary init directory.
const Boot = "boot"

// Registry manages runlevel membership and state listings.
type Registry struct {
	Dirs         resolve.Dirs
	RunlevelsDir string
	Runlevels    runlevel.Registry
	State        svcstate.Registry
}

// InRunlevel reports whether service is a member of level.
func (m Registry) InRunlevel(service, level string) bool {
	path := filepath.Join(m.RunlevelsDir, level, filepath.Base(service))
	_, err := os.Lstat(path)
	return err == nil
}

// Add grants service membership in level. level must be a configured
// runlevel, and service must not already be a member. Adding to the boot
// runlevel additionally requires that service resolves to a script whose
// real (symlink-resolved) directory is exactly the primary init directory.
func (m Registry) Add(level, service string) error {
	if !m.Runlevels.Exists(level) {
		return fmt.Errorf("membership: runlevel %q: %w", level, rcerr.ErrNotFound)
	}
	if m.InRunlevel(service, level) {
		return fmt.Errorf("membership: %q in %q: %w", service, level, rcerr.ErrExists)
	}

	init, err := m.Dirs.Resolve(service)
	if err != nil {
		return err
	}

	if level == Boot {
		real, err := filepath.EvalSymlinks(filepath.Dir(init))
		if err != nil {
			return fmt.Errorf("membership: resolve %q: %w", init, rcerr.ErrIO)
		}
		wantReal, err := filepath.EvalSymlinks(m.Dirs.InitDir)
		if err != nil || real != wantReal {
			return fmt.Errorf("membership: %q outside primary init dir: %w", service, rcerr.ErrPermission)
		}
		init = filepath.Join(m.Dirs.InitDir, service)
	}

	file := filepath.Join(m.RunlevelsDir, level, filepath.Base(service))
	if err := os.Symlink(init, file); err != nil {
		return fmt.Errorf("membership: symlink %q: %w", file, rcerr.ErrIO)
	}
	return nil
}

// Delete removes service's membership in level.
func (m Registry) Delete(level, service string) error {
	file := filepath.Join(m.RunlevelsDir, level, filepath.Base(service))
	if err := os.Remove(file); err != nil {
		return fmt.Errorf("membership: unlink %q: %w", file, rcerr.ErrIO)
	}
	return nil
}

// InRunlevelList returns the members of level, or — if level is empty —
// the union of every init-script in the primary and local init
// directories. The sysinit and single pseudo-runlevels never contain
// services and always report empty.
func (m Registry) InRunlevelList(level string) []string {
	if level == "" {
		list := pathutil.ListDir(m.Dirs.InitDir, pathutil.InitScript)
		for _, s := range pathutil.ListDir(m.Dirs.LocalDir, pathutil.InitScript) {
			list = pathutil.AddSortedUnique(list, s)
		}
		return list
	}

	if level == runlevel.Sysinit || level == runlevel.Single {
		return nil
	}

	return pathutil.ListDir(filepath.Join(m.RunlevelsDir, level), pathutil.InitScript)
}

// InState returns the services currently in state. For the SCHEDULED
// pseudo-state, the layout is two-level: every trigger directory is
// listed and its entries unioned.
func (m Registry) InState(state svcstate.State) []string {
	name, ok := svcstate.NameOf(state)
	if !ok {
		return nil
	}
	dir := filepath.Join(m.Dirs.StateDir, name)

	if state != svcstate.Scheduled {
		return pathutil.ListDir(dir, pathutil.InitScript)
	}

	var list []string
	for _, trigger := range pathutil.ListDir(dir, nil) {
		for _, entry := range pathutil.ListDir(filepath.Join(dir, trigger), pathutil.InitScript) {
			list = pathutil.AddSortedUnique(list, entry)
		}
	}
	return list
}
