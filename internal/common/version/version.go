package version

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Version information - set at build time via ldflags
var (
	Version   = "2.0.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("kpm version %s\n  commit: %s\n  built: %s\n  go: %s\n  os/arch: %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version string
func Short() string {
	return Version
}

// splitVersion breaks "v1.10.2-rc1" into ["1", "10", "2", "rc1"]
func splitVersion(v string) []string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-' || r == '+' || r == '_'
	})
}

// compareComponent orders numeric components numerically and anything else
// as plain strings. A numeric component sorts after a non-numeric one.
func compareComponent(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)

	switch {
	case aErr == nil && bErr == nil:
		if an < bn {
			return -1
		}
		if an > bn {
			return 1
		}
		return 0
	case aErr == nil:
		return 1
	case bErr == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// Compare compares two dotted version strings component by component.
// Missing components count as zero, so "1.2" == "1.2.0" and "1.9" < "1.10".
// Returns: -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func Compare(v1, v2 string) int {
	p1 := splitVersion(v1)
	p2 := splitVersion(v2)

	maxLen := len(p1)
	if len(p2) > maxLen {
		maxLen = len(p2)
	}

	for i := 0; i < maxLen; i++ {
		a, b := "0", "0"
		if i < len(p1) {
			a = p1[i]
		}
		if i < len(p2) {
			b = p2[i]
		}
		if cmp := compareComponent(a, b); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// IsNewer reports whether remote is a later version than local
func IsNewer(local, remote string) bool {
	return Compare(remote, local) > 0
}
