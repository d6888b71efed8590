//go:build linux

package hostclass

import (
	"os"
	"regexp"
)

func classify() Tag {
	if _, err := os.Stat("/proc/xen"); err == nil {
		if fileContains("/proc/xen/capabilities", "control_d") {
			return XEN0
		}
		return XENU
	}

	if fileMatches("/proc/cpuinfo", "UML") {
		return UML
	}

	if fileMatches("/proc/self/status", `(?:s_context|VxID|envID):\s*[1-9]`) {
		return VPS
	}

	// A true jail probe requires security.jail.jailed via sysctl, which is
	// a BSD facility not reachable from a Linux build.
	return None
}

func fileContains(path, substr string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return regexp.MustCompile(regexp.QuoteMeta(substr)).Match(data)
}

func fileMatches(path, pattern string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return regexp.MustCompile(pattern).Match(data)
}
