package membership

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcsvc/rclib/rcerr"
	"github.com/rcsvc/rclib/resolve"
	"github.com/rcsvc/rclib/runlevel"
	"github.com/rcsvc/rclib/schedule"
	"github.com/rcsvc/rclib/svcstate"
)

func newRegistry(t *testing.T) (Registry, resolve.Dirs, string) {
	t.Helper()
	state := t.TempDir()
	init := t.TempDir()
	levels := t.TempDir()
	dirs := resolve.Dirs{StateDir: state, InitDir: init, LocalDir: t.TempDir()}

	for _, l := range []string{"default", Boot} {
		os.MkdirAll(filepath.Join(levels, l), 0755)
	}

	sched := schedule.Registry{StateDir: state, Dirs: dirs}
	reg := Registry{
		Dirs:         dirs,
		RunlevelsDir: levels,
		Runlevels:    runlevel.Registry{StateDir: state, RunlevelsDir: levels},
		State:        svcstate.Registry{Dirs: dirs, Sched: sched},
	}
	return reg, dirs, init
}

func TestAddThenInRunlevel(t *testing.T) {
	m, _, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)

	if err := m.Add("default", "foo"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !m.InRunlevel("foo", "default") {
		t.Fatal("InRunlevel(foo, default) = false")
	}
}

func TestAddRejectsUnknownRunlevel(t *testing.T) {
	m, _, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)

	err := m.Add("nope", "foo")
	if !errors.Is(err, rcerr.ErrNotFound) {
		t.Fatalf("Add to unknown runlevel: %v, want ErrNotFound", err)
	}
}

func TestAddRejectsDuplicateMembership(t *testing.T) {
	m, _, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)

	m.Add("default", "foo")
	err := m.Add("default", "foo")
	if !errors.Is(err, rcerr.ErrExists) {
		t.Fatalf("Add duplicate: %v, want ErrExists", err)
	}
}

func TestAddToBootRequiresPrimaryInitDir(t *testing.T) {
	m, dirs, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)
	os.WriteFile(filepath.Join(dirs.LocalDir, "bar"), nil, 0755)

	if err := m.Add(Boot, "foo"); err != nil {
		t.Fatalf("Add(boot, foo): %v", err)
	}
	err := m.Add(Boot, "bar")
	if !errors.Is(err, rcerr.ErrPermission) {
		t.Fatalf("Add(boot, bar) = %v, want ErrPermission", err)
	}
}

func TestDelete(t *testing.T) {
	m, _, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)
	m.Add("default", "foo")

	if err := m.Delete("default", "foo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if m.InRunlevel("foo", "default") {
		t.Fatal("InRunlevel after Delete = true")
	}
}

func TestInRunlevelListEmptyUnionsInitDirs(t *testing.T) {
	m, dirs, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "foo"), nil, 0755)
	os.WriteFile(filepath.Join(dirs.LocalDir, "bar"), nil, 0755)

	got := m.InRunlevelList("")
	if len(got) != 2 || got[0] != "bar" || got[1] != "foo" {
		t.Fatalf("InRunlevelList(\"\") = %v, want [bar foo]", got)
	}
}

func TestInRunlevelListPseudoLevelsAlwaysEmpty(t *testing.T) {
	m, _, _ := newRegistry(t)
	if got := m.InRunlevelList(runlevel.Sysinit); got != nil {
		t.Fatalf("InRunlevelList(sysinit) = %v, want nil", got)
	}
	if got := m.InRunlevelList(runlevel.Single); got != nil {
		t.Fatalf("InRunlevelList(single) = %v, want nil", got)
	}
}

func TestInStateScheduledUnionsTriggerDirs(t *testing.T) {
	m, _, init := newRegistry(t)
	os.WriteFile(filepath.Join(init, "dep"), nil, 0755)

	sched := schedule.Registry{StateDir: m.Dirs.StateDir, Dirs: m.Dirs}
	sched.Start("net", "dep")
	sched.Start("disk", "dep")

	got := m.InState(svcstate.Scheduled)
	if len(got) != 1 || got[0] != "dep" {
		t.Fatalf("InState(Scheduled) = %v, want [dep]", got)
	}
}
