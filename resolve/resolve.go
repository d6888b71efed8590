// Package resolve maps a bare service name to the canonical path of its
// init script, following the same search order the state database itself
// relies on elsewhere (svcstate, executor): prefer whatever a live state
// marker already points at before falling back to the init directories.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rcsvc/rclib/rcerr"
)

// Dirs names the directories consulted when resolving a service name.
type Dirs struct {
	StateDir string // e.g. <state>
	InitDir  string // e.g. <init>
	LocalDir string // e.g. <init_local>
}

// Resolve returns the canonical script path for service. If service is
// already absolute, it is returned unchanged without touching the
// filesystem. Otherwise the search order is:
//
//  1. <state>/started/<service>, if it is a symlink: follow one level.
//  2. <state>/inactive/<service>, if it is a symlink: follow one level.
//  3. <init>/<service>, if it exists.
//  4. <init_local>/<service>, if it exists.
//
// Resolve never descends into the script; the result is only ever suitable
// for exec, not for reading.
func (d Dirs) Resolve(service string) (string, error) {
	if filepath.IsAbs(service) {
		return service, nil
	}

	if target, ok := followSymlink(filepath.Join(d.StateDir, "started", service)); ok {
		return target, nil
	}
	if target, ok := followSymlink(filepath.Join(d.StateDir, "inactive", service)); ok {
		return target, nil
	}

	if p := filepath.Join(d.InitDir, service); exists(p) {
		return p, nil
	}
	if p := filepath.Join(d.LocalDir, service); exists(p) {
		return p, nil
	}

	return "", fmt.Errorf("resolve %q: %w", service, rcerr.ErrNotFound)
}

// Exists reports whether service resolves to a script that is executable by
// some class and whose name does not end in ".sh".
func (d Dirs) Exists(service string) bool {
	if strings.HasSuffix(service, ".sh") {
		return false
	}

	path, err := d.Resolve(service)
	if err != nil {
		return false
	}

	fi, err := os.Stat(path)
	if err != nil {
		return false
	}

	return fi.Mode()&0111 != 0
}

func followSymlink(path string) (string, bool) {
	fi, err := os.Lstat(path)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return "", false
	}

	target, err := os.Readlink(path)
	if err != nil {
		return "", false
	}
	return target, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
