// Package pathutil provides the small set of path-joining, directory-listing
// and tree-removal primitives the rest of rclib is built on. None of this is
// specific to service management; it exists because the standard library's
// os.ReadDir and filepath.Join don't quite match the filtering and ordering
// rules the state database relies on.
package pathutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Join joins path fragments; it is filepath.Join under another name.
func Join(fragments ...string) string {
	return filepath.Join(fragments...)
}

// FirstLine returns the first line of data, with its trailing newline (if
// any) stripped. Used wherever the state database stores a single logical
// value in a file that may carry a trailing newline or, for safety, more
// than one line.
func FirstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// Filter decides whether a directory entry should be included in a listing.
type Filter func(dir string, name string) bool

// InitScript is a Filter that accepts entries which stat successfully and
// whose name does not end in ".sh". Entries that can no longer be stat'd
// (e.g. a runlevel symlink whose target has been removed) are silently
// skipped, matching the original implementation's tolerance for a service
// being listed in a runlevel after its script has gone away.
func InitScript(dir string, name string) bool {
	if strings.HasSuffix(name, ".sh") {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		return false
	}
	return true
}

// DirOnly is a Filter that accepts only subdirectories.
func DirOnly(dir string, name string) bool {
	fi, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		return false
	}
	return fi.IsDir()
}

// ListDir returns a sorted, deduplicated list of the names in dir that pass
// filter. Entries beginning with "." are always rejected. A missing dir is
// treated as an empty listing, not an error, since most callers treat "no
// such state subdirectory yet" the same as "nothing recorded there".
func ListDir(dir string, filter Filter) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if filter != nil && !filter(dir, name) {
			continue
		}
		names = append(names, name)
	}

	return dedupSort(names)
}

// AddSortedUnique inserts name into a sorted list if it isn't already present.
func AddSortedUnique(list []string, name string) []string {
	i := sort.SearchStrings(list, name)
	if i < len(list) && list[i] == name {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = name
	return list
}

func dedupSort(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	var last string
	for i, n := range names {
		if i > 0 && n == last {
			continue
		}
		out = append(out, n)
		last = n
	}
	return out
}

// RemoveTree recursively unlinks everything under path. Symlinks are
// unlinked as files, never followed. If removeRoot is set, path itself is
// also removed once empty. A missing path is success (mirrors rmdir/unlink
// returning ENOENT being treated as "already clear" by most callers).
//
// Failures are returned as-is; partial removal is possible and is not rolled
// back, matching the filesystem-as-database model the rest of rclib relies on.
func RemoveTree(path string, removeRoot bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		full := filepath.Join(path, e.Name())
		if e.IsDir() && e.Type()&os.ModeSymlink == 0 {
			if err := RemoveTree(full, true); err != nil {
				return err
			}
			continue
		}
		if err := os.Remove(full); err != nil {
			return err
		}
	}

	if removeRoot {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}
