// Package rclib is a service-management library for a Unix init system. It
// represents services and runlevels, tracks each service's lifecycle state,
// and mediates transitions through a filesystem-rooted state database (see
// the subpackages: pathutil, runlevel, resolve, metadata, svcstate,
// schedule, membership, executor, options, hostclass, environ).
//
// Coordination between concurrent invocations relies entirely on atomic
// filesystem primitives; this package intentionally adds no locking of its
// own, and callers that need a stronger guarantee must layer their own
// lock on top.
//
// # Scope
//
// This package answers "what state is this service in" and "move it to
// that state" questions. It does not decide which services to start
// (that's policy, left to the caller), and it is meant to be linked into
// short-lived processes rather than run as a long-lived daemon — there is
// no event loop here, just synchronous filesystem operations and, in
// executor, a single fork+exec per call.
package rclib

import (
	"github.com/rcsvc/rclib/environ"
	"github.com/rcsvc/rclib/executor"
	"github.com/rcsvc/rclib/hostclass"
	"github.com/rcsvc/rclib/membership"
	"github.com/rcsvc/rclib/metadata"
	"github.com/rcsvc/rclib/options"
	"github.com/rcsvc/rclib/resolve"
	"github.com/rcsvc/rclib/runlevel"
	"github.com/rcsvc/rclib/schedule"
	"github.com/rcsvc/rclib/svcstate"
	"github.com/tuxdude/zzzlogi"
)

// Paths configures where the state database and script directories live.
type Paths struct {
	StateDir     string // <state>, e.g. /var/lib/rc/init.d
	InitDir      string // <init>, e.g. /etc/init.d
	LocalDir     string // <init_local>, e.g. /usr/local/etc/init.d
	RunlevelsDir string // <runlevels>, e.g. /etc/runlevels
}

func (p Paths) dirs() resolve.Dirs {
	return resolve.Dirs{StateDir: p.StateDir, InitDir: p.InitDir, LocalDir: p.LocalDir}
}

// RC is a configured handle onto one state database. It is cheap to
// construct and carries no state of its own beyond its configuration — the
// state database on disk is the only thing that's actually stateful.
type RC struct {
	Paths Paths

	// Log, if non-nil, receives diagnostic messages about state
	// transitions and script execution. Left nil, RC logs nothing.
	Log zzzlogi.Logger

	// Environ is an installable hook a caller may Set and Emit to
	// directly. None of RC's own operations write to it (matching the
	// original's rc_environ_fd, which the core itself never populated
	// either) — it exists for a caller or plugin sitting above RC to
	// report environment deltas without a process-wide global.
	Environ *environ.Sink

	resolve    resolve.Dirs
	runlevels  runlevel.Registry
	schedule   schedule.Registry
	state      svcstate.Registry
	membership membership.Registry
	options    options.Store
	executor   executor.Executor
	metadata   metadata.Reader
}

// New wires a Paths configuration into a usable RC handle.
func New(paths Paths) *RC {
	dirs := paths.dirs()

	sched := schedule.Registry{StateDir: paths.StateDir, Dirs: dirs}
	state := svcstate.Registry{Dirs: dirs, Sched: sched}
	runlevels := runlevel.Registry{StateDir: paths.StateDir, RunlevelsDir: paths.RunlevelsDir}

	return &RC{
		Paths:      paths,
		Environ:    &environ.Sink{},
		resolve:    dirs,
		runlevels:  runlevels,
		schedule:   sched,
		state:      state,
		membership: membership.Registry{Dirs: dirs, RunlevelsDir: paths.RunlevelsDir, Runlevels: runlevels, State: state},
		options:    options.Store{StateDir: paths.StateDir},
		executor:   executor.Executor{Dirs: dirs, State: state},
		metadata:   metadata.Reader{Dirs: dirs},
	}
}

func (r *RC) logf(format string, args ...interface{}) {
	if r.Log != nil {
		r.Log.Debugf(format, args...)
	}
}

// Resolve returns the canonical script path for service.
func (r *RC) Resolve(service string) (string, error) {
	return r.resolve.Resolve(service)
}

// ServiceExists reports whether service resolves to an executable script.
func (r *RC) ServiceExists(service string) bool {
	return r.resolve.Exists(service)
}

// State returns service's current state word.
func (r *RC) State(service string) svcstate.State {
	return r.state.Get(service)
}

// Mark transitions service to target.
func (r *RC) Mark(service string, target svcstate.State) bool {
	r.logf("mark %s -> %v", service, target)
	return r.state.Mark(service, target)
}

// ServiceStart execs service's start script unless it is FAILED or already
// not STOPPED, per executor.Start.
func (r *RC) ServiceStart(service string) int {
	r.logf("start %s", service)
	return r.executor.Start(service)
}

// ServiceStop execs service's stop script unless it is FAILED or already
// STOPPED, per executor.Stop.
func (r *RC) ServiceStop(service string) int {
	r.logf("stop %s", service)
	return r.executor.Stop(service)
}

// ScheduleStart records that dependent should start the next time trigger
// changes state.
func (r *RC) ScheduleStart(trigger, dependent string) error {
	return r.schedule.Start(trigger, dependent)
}

// ScheduleClear removes every entry scheduled against trigger.
func (r *RC) ScheduleClear(trigger string) error {
	return r.schedule.Clear(trigger)
}

// Scheduled lists the dependents scheduled against trigger.
func (r *RC) Scheduled(trigger string) []string {
	return r.schedule.Scheduled(trigger)
}

// ScheduledBy returns the full paths of every trigger's entry for dependent.
func (r *RC) ScheduledBy(dependent string) []string {
	return r.schedule.ScheduledBy(dependent)
}

// ServiceInRunlevel reports whether service is a member of level.
func (r *RC) ServiceInRunlevel(service, level string) bool {
	return r.membership.InRunlevel(service, level)
}

// ServiceAdd grants service membership in level.
func (r *RC) ServiceAdd(level, service string) error {
	return r.membership.Add(level, service)
}

// ServiceDelete removes service's membership in level.
func (r *RC) ServiceDelete(level, service string) error {
	return r.membership.Delete(level, service)
}

// ServicesInRunlevel lists level's members (or every known service, if
// level is empty).
func (r *RC) ServicesInRunlevel(level string) []string {
	return r.membership.InRunlevelList(level)
}

// ServicesInState lists the services currently in state.
func (r *RC) ServicesInState(state svcstate.State) []string {
	return r.membership.InState(state)
}

// ValueGet returns a per-service option value.
func (r *RC) ValueGet(service, key string) (string, bool) {
	return r.options.Get(service, key)
}

// ValueSet records a per-service option value.
func (r *RC) ValueSet(service, key, value string) error {
	return r.options.Set(service, key, value)
}

// RunlevelList lists configured runlevels.
func (r *RC) RunlevelList() []string {
	return r.runlevels.List()
}

// RunlevelGet returns the current runlevel.
func (r *RC) RunlevelGet() string {
	return r.runlevels.Get()
}

// RunlevelSet records the current runlevel.
func (r *RC) RunlevelSet(level string) error {
	return r.runlevels.Set(level)
}

// RunlevelExists reports whether level is a configured runlevel.
func (r *RC) RunlevelExists(level string) bool {
	return r.runlevels.Exists(level)
}

// RunlevelStarting reports whether the rc.starting marker is present.
func (r *RC) RunlevelStarting() bool {
	return r.runlevels.Starting()
}

// RunlevelStopping reports whether the rc.stopping marker is present.
func (r *RC) RunlevelStopping() bool {
	return r.runlevels.Stopping()
}

// ExtraCommands returns the extra commands a service script advertises.
func (r *RC) ExtraCommands(service string) ([]string, error) {
	return r.metadata.ExtraCommands(service)
}

// Description returns a service script's advertised description for
// option (or its default description, if option is empty).
func (r *RC) Description(service, option string) (string, error) {
	return r.metadata.Description(service, option)
}

// HostClass returns the informational host classification tag.
func (r *RC) HostClass() hostclass.Tag {
	return hostclass.Classify()
}
