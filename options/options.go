// Package options implements the per-service key/value store: short
// strings recorded at <state>/options/<service>/<key>.
package options

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcsvc/rclib/pathutil"
	"github.com/rcsvc/rclib/rcerr"
)

// Store reads and writes per-service option files.
type Store struct {
	StateDir string
}

func (s Store) dir(service string) string {
	return filepath.Join(s.StateDir, "options", service)
}

// Get returns the first line of the option file, and false if it doesn't exist.
func (s Store) Get(service, key string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir(service), key))
	if err != nil {
		return "", false
	}

	return pathutil.FirstLine(data), true
}

// Set writes value (which may be empty) to the option file, creating the
// per-service options directory if needed.
func (s Store) Set(service, key, value string) error {
	dir := s.dir(service)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("options: mkdir %q: %w", dir, rcerr.ErrIO)
	}

	if err := os.WriteFile(filepath.Join(dir, key), []byte(value), 0644); err != nil {
		return fmt.Errorf("options: write %q/%q: %w", service, key, rcerr.ErrIO)
	}
	return nil
}
