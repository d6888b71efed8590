// Package executor runs a service script to completion of its fork/exec,
// coordinating with other processes through the exclusive-lock FIFO.
//
// Go cannot safely replicate a bare fork(2) followed by hand-rolled
// sigaction calls in the child the way the original C implementation
// does: after fork, a Go process is briefly running with only one OS
// thread alive while the rest of the runtime's state (other threads,
// GC) is frozen mid-stride, so arbitrary Go code (and most libc calls)
// are unsafe to run there. The standard library's os/exec already
// performs the fork+exec pair through the runtime's own carefully
// sequenced, signal-safe machinery; this package builds on that instead
// of on a raw syscall.ForkExec, and gets the same externally observable
// behaviour (a resolved script, exec'd with a single argument, with
// signal delivery for a fixed set of signals reset to their defaults
// around the call).
package executor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rcsvc/rclib/gsptcall"
	"github.com/rcsvc/rclib/resolve"
	"github.com/rcsvc/rclib/svcstate"
	"golang.org/x/sys/unix"
)

// resetSignals are restored to their default dispositions around the
// fork+exec window, matching the original's explicit sigaction() reset of
// these seven signals in the forked child.
var resetSignals = []os.Signal{
	syscall.SIGCHLD,
	syscall.SIGHUP,
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGTERM,
	syscall.SIGUSR1,
	syscall.SIGWINCH,
}

// Executor forks and execs service scripts.
type Executor struct {
	Dirs  resolve.Dirs
	State svcstate.Registry

	// ReflectTitle, if true, sets the process title to name what's being
	// run before forking. Cosmetic only; never required for correctness.
	ReflectTitle bool
}

// Exec resolves service, execs it with arg ("start" or "stop"), and
// returns:
//
//   - 0 if the script no longer exists (the service is marked STOPPED as a
//     side effect)
//   - -1 if the exclusive-lock FIFO could not be created, or the exec
//     itself failed
//   - the child's pid on success
func (e Executor) Exec(service, arg string) int {
	path, err := e.Dirs.Resolve(service)
	if err != nil || !fileExists(path) {
		e.State.Mark(service, svcstate.Stopped)
		return 0
	}

	fifo := filepath.Join(e.Dirs.StateDir, "exclusive", filepath.Base(service))
	if err := os.MkdirAll(filepath.Dir(fifo), 0755); err != nil {
		return -1
	}
	if err := unix.Mkfifo(fifo, 0600); err != nil && !errors.Is(err, unix.EEXIST) {
		return -1
	}

	if e.ReflectTitle {
		gsptcall.SetProcTitle(filepath.Base(service) + " " + arg)
	}

	// Reset dispositions for the signals the spec calls out immediately
	// before starting the child, so a caught-or-ignored disposition in
	// this process isn't inherited by the new program image, then put
	// them back right after. Callers of this package are expected to run
	// Exec repeatedly within one process (e.g. an rc-style tool iterating
	// a whole runlevel), so this must not be a one-way mutation of the
	// calling process's own signal handling.
	wasIgnored := snapshotIgnored(resetSignals)
	signal.Reset(resetSignals...)

	cmd := exec.Command(path, arg)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Start()
	restoreIgnored(resetSignals, wasIgnored)

	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to exec '%s': %v\n", path, err)
		os.Remove(fifo)
		return -1
	}

	return cmd.Process.Pid
}

// snapshotIgnored records which of sigs were being explicitly ignored
// (via signal.Ignore) before a reset. Signals being delivered to a
// signal.Notify channel rather than ignored can't be distinguished from
// signals at their default disposition through the os/signal API, so
// only the ignored case is restored; this still covers the common case
// the original cared about (e.g. a shell leaving SIGCHLD ignored).
func snapshotIgnored(sigs []os.Signal) []bool {
	ignored := make([]bool, len(sigs))
	for i, sig := range sigs {
		ignored[i] = signal.Ignored(sig)
	}
	return ignored
}

func restoreIgnored(sigs []os.Signal, wasIgnored []bool) {
	for i, sig := range sigs {
		if wasIgnored[i] {
			signal.Ignore(sig)
		}
	}
}

// Start runs the service's "start" argument: a no-op (0) unless the
// service is currently STOPPED, and a hard failure (-1) if it is FAILED.
func (e Executor) Start(service string) int {
	state := e.State.Get(service)
	if svcstate.HasModifier(state, svcstate.Failed) {
		return -1
	}
	if svcstate.Primary(state) != svcstate.Stopped {
		return 0
	}
	return e.Exec(service, "start")
}

// Stop runs the service's "stop" argument: a no-op (0) if the service is
// already STOPPED, and a hard failure (-1) if it is FAILED.
func (e Executor) Stop(service string) int {
	state := e.State.Get(service)
	if svcstate.HasModifier(state, svcstate.Failed) {
		return -1
	}
	if svcstate.Primary(state) == svcstate.Stopped {
		return 0
	}
	return e.Exec(service, "stop")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
