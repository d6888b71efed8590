// Package rcerr defines the small error taxonomy shared across the rclib
// subpackages. Every function that returns an error wraps one of these
// sentinels with fmt.Errorf("...: %w", ...) so callers can use errors.Is
// instead of inspecting platform errno values. The pathutil primitives are
// the exception: they return the underlying os error as-is, and their
// callers wrap it.
package rcerr

import "errors"

var (
	// ErrNotFound means the named service, runlevel, or state entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExists means an add was attempted against a membership or marker
	// where idempotency is not defined for that operation.
	ErrExists = errors.New("already exists")

	// ErrPermission means the operation is disallowed by policy (e.g. adding
	// a service to the boot runlevel from outside the primary init directory),
	// or the underlying filesystem call failed with EACCES.
	ErrPermission = errors.New("permission denied")

	// ErrIO wraps any other underlying filesystem or subprocess failure.
	ErrIO = errors.New("i/o failure")

	// ErrScriptFailed means exec of the service script itself failed in the
	// forked child.
	ErrScriptFailed = errors.New("script failed")
)
