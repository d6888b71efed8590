// Package hostclass provides a purely informational classification of the
// host the process is running on: Xen dom0/domU, User-Mode Linux, or a VPS
// container. The JAIL tag exists for a BSD jail, but no probe in this
// package returns it. Nothing in rclib's core behaviour depends on
// the result; it exists so a caller (e.g. a boot-orchestration front end,
// out of scope for this library) can adjust policy without this library
// needing to know what that policy is.
package hostclass

// Tag identifies the kind of virtualized or containerized host detected.
type Tag string

const (
	None Tag = ""
	XEN0 Tag = "XEN0"
	XENU Tag = "XENU"
	UML  Tag = "UML"
	VPS  Tag = "VPS"
	JAIL Tag = "JAIL"
)

// Classify probes the host and returns its Tag. On platforms without a
// probe implementation it always returns None.
func Classify() Tag {
	return classify()
}
