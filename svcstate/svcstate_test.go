package svcstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rcsvc/rclib/resolve"
	"github.com/rcsvc/rclib/schedule"
)

func newRegistry(t *testing.T) (Registry, string) {
	t.Helper()
	state := t.TempDir()
	init := t.TempDir()
	dirs := resolve.Dirs{StateDir: state, InitDir: init, LocalDir: t.TempDir()}
	sched := schedule.Registry{StateDir: state, Dirs: dirs}
	return Registry{Dirs: dirs, Sched: sched}, init
}

func TestGetDefaultsToStopped(t *testing.T) {
	r, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)

	if got := r.Get("foo"); got != Stopped {
		t.Fatalf("Get(foo) = %v, want Stopped", got)
	}
}

func TestMarkStartedThenGetRoundTrips(t *testing.T) {
	r, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)

	if ok := r.Mark("foo", Started); !ok {
		t.Fatal("Mark(foo, Started) = false")
	}
	if got := r.Get("foo"); Primary(got) != Started {
		t.Fatalf("Get(foo) primary = %v, want Started", Primary(got))
	}
}

func TestMarkRequiresLiveScriptExceptStopped(t *testing.T) {
	r, _ := newRegistry(t)
	if ok := r.Mark("ghost", Started); ok {
		t.Fatal("Mark(ghost, Started) = true, want false (no script)")
	}
	if ok := r.Mark("ghost", Stopped); !ok {
		t.Fatal("Mark(ghost, Stopped) = false, want true (stop never requires a script)")
	}
}

func TestStoppingFromInactivePreservesWasInactive(t *testing.T) {
	r, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)

	r.Mark("foo", Inactive)
	r.Mark("foo", Stopping)

	got := r.Get("foo")
	if !HasModifier(got, WasInactive) {
		t.Fatalf("Get(foo) = %v, want WasInactive set after Inactive -> Stopping", got)
	}
}

func TestMarkStoppedClearsScheduleAndTargets(t *testing.T) {
	r, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)
	os.WriteFile(filepath.Join(init, "dep"), nil, 0755)

	r.Mark("foo", Started)
	r.Sched.Start("foo", "dep")

	if got := r.Get("dep"); !HasModifier(got, Scheduled) {
		t.Fatalf("Get(dep) = %v, want Scheduled bit set", got)
	}

	if ok := r.Mark("foo", Stopped); !ok {
		t.Fatal("Mark(foo, Stopped) = false")
	}
	if got := r.Sched.Scheduled("foo"); got != nil {
		t.Fatalf("Scheduled(foo) after stop = %v, want nil", got)
	}
}

func TestScheduledBitDerivedOnlyWhenStopped(t *testing.T) {
	r, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)
	os.WriteFile(filepath.Join(init, "dep"), nil, 0755)

	r.Sched.Start("foo", "dep")
	if got := r.Get("dep"); !HasModifier(got, Scheduled) {
		t.Fatalf("Get(dep) = %v, want Scheduled while stopped", got)
	}

	r.Mark("dep", Started)
	if got := r.Get("dep"); HasModifier(got, Scheduled) {
		t.Fatalf("Get(dep) = %v, want Scheduled cleared once started", got)
	}
}
