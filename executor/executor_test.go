package executor

import (
	"os"
	"os/signal"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcsvc/rclib/resolve"
	"github.com/rcsvc/rclib/schedule"
	"github.com/rcsvc/rclib/svcstate"
)

func newExecutor(t *testing.T) (Executor, string) {
	t.Helper()
	state := t.TempDir()
	init := t.TempDir()
	dirs := resolve.Dirs{StateDir: state, InitDir: init, LocalDir: t.TempDir()}
	reg := svcstate.Registry{Dirs: dirs, Sched: schedule.Registry{StateDir: state, Dirs: dirs}}
	return Executor{Dirs: dirs, State: reg}, init
}

func TestExecMarksStoppedWhenScriptMissing(t *testing.T) {
	e, _ := newExecutor(t)
	if got := e.Exec("ghost", "start"); got != 0 {
		t.Fatalf("Exec(ghost) = %d, want 0", got)
	}
	if got := e.State.Get("ghost"); svcstate.Primary(got) != svcstate.Stopped {
		t.Fatalf("State after Exec(ghost) = %v, want Stopped", got)
	}
}

func TestStartNoopUnlessStopped(t *testing.T) {
	e, init := newExecutor(t)
	script := filepath.Join(init, "foo")
	os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755)

	e.State.Mark("foo", svcstate.Started)
	if got := e.Start("foo"); got != 0 {
		t.Fatalf("Start(foo) while Started = %d, want 0 (noop)", got)
	}
}

func TestStartAndStopShortCircuitOnFailed(t *testing.T) {
	e, init := newExecutor(t)
	os.WriteFile(filepath.Join(init, "foo"), []byte("#!/bin/sh\nexit 0\n"), 0755)

	e.State.Mark("foo", svcstate.Failed)
	if got := e.Start("foo"); got != -1 {
		t.Fatalf("Start(foo) while Failed = %d, want -1", got)
	}
	if got := e.Stop("foo"); got != -1 {
		t.Fatalf("Stop(foo) while Failed = %d, want -1", got)
	}
}

func TestStopNoopWhenAlreadyStopped(t *testing.T) {
	e, init := newExecutor(t)
	os.WriteFile(filepath.Join(init, "foo"), []byte("#!/bin/sh\nexit 0\n"), 0755)

	if got := e.Stop("foo"); got != 0 {
		t.Fatalf("Stop(foo) while Stopped = %d, want 0 (noop)", got)
	}
}

func TestStartExecsScriptAndReturnsPid(t *testing.T) {
	e, init := newExecutor(t)
	script := filepath.Join(init, "foo")
	os.WriteFile(script, []byte("#!/bin/sh\ntouch \"$0.ran\"\n"), 0755)

	pid := e.Start("foo")
	if pid <= 0 {
		t.Fatalf("Start(foo) = %d, want a positive pid", pid)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(script + ".ran"); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("script side effect %q.ran never appeared", script)
}

func TestExecRestoresIgnoredSignalAfterward(t *testing.T) {
	e, init := newExecutor(t)
	os.WriteFile(filepath.Join(init, "foo"), []byte("#!/bin/sh\nexit 0\n"), 0755)

	sig := resetSignals[0]
	signal.Ignore(sig)
	defer signal.Reset(sig)

	if pid := e.Start("foo"); pid <= 0 {
		t.Fatalf("Start(foo) = %d, want a positive pid", pid)
	}

	if !signal.Ignored(sig) {
		t.Fatalf("%v no longer ignored after Exec, want it restored", sig)
	}
}
