// Package metadata extracts the opts/description shell variables a service
// script advertises by dot-sourcing it in a subshell. This is the only
// component that executes a service script for read purposes; everywhere
// else a script is only ever exec'd to replace the current process image
// (see package executor).
//
// The script path is always passed as a positional shell argument ("$1" in
// the fixed template below) rather than interpolated into the command
// string, so a service name or path containing shell metacharacters cannot
// inject commands into the subshell.
package metadata

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/rcsvc/rclib/rcerr"
	"github.com/rcsvc/rclib/resolve"
)

// Reader sources service scripts to answer metadata queries.
type Reader struct {
	Dirs resolve.Dirs

	// Shell is the interpreter used to source the script. Defaults to
	// "/bin/sh" when empty.
	Shell string
}

func (r Reader) shell() string {
	if r.Shell != "" {
		return r.Shell
	}
	return "/bin/sh"
}

// ExtraCommands sources the script and echoes ${opts}, returning the
// sorted, unique, space-separated tokens.
func (r Reader) ExtraCommands(service string) ([]string, error) {
	out, err := r.source(service, `. "$1"; echo "${opts}"`)
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(out)
	if len(fields) == 0 {
		return nil, nil
	}

	sort.Strings(fields)
	tokens := fields[:1]
	for _, f := range fields[1:] {
		if f != tokens[len(tokens)-1] {
			tokens = append(tokens, f)
		}
	}
	return tokens, nil
}

// Description sources the script and echoes ${description} (option == "")
// or ${description_<option>}, returning the first line of stdout.
func (r Reader) Description(service, option string) (string, error) {
	var varName string
	if option == "" {
		varName = "description"
	} else {
		varName = "description_" + option
	}

	out, err := r.source(service, fmt.Sprintf(`. "$1"; echo "${%s}"`, varName))
	if err != nil {
		return "", err
	}

	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return out, nil
}

func (r Reader) source(service, script string) (string, error) {
	path, err := r.Dirs.Resolve(service)
	if err != nil {
		return "", err
	}

	cmd := exec.Command(r.shell(), "-c", script, "--", path)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("metadata: source %q: %v: %w", path, err, rcerr.ErrIO)
	}

	return stdout.String(), nil
}
