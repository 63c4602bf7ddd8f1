// Package version orders dotted standards versions such as "0.1" or "0.10".
package version

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Baseline is used when neither the candidate nor any active rule declares a version.
const Baseline = "0.1"

// Compare returns -1, 0 or 1 when a is lower, equal or greater than b.
// Versions are compared numerically per dotted segment, so "0.10" > "0.9".
func Compare(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil && segments(a) <= 3 && segments(b) <= 3 {
		return va.Compare(vb)
	}
	return compareSegments(a, b)
}

// Greater reports whether a is strictly greater than b.
func Greater(a, b string) bool {
	return Compare(a, b) > 0
}

// Latest returns the highest non-empty version, or fallback when there is none.
func Latest(versions []string, fallback string) string {
	latest := ""
	for _, v := range versions {
		if v == "" {
			continue
		}
		if latest == "" || Greater(v, latest) {
			latest = v
		}
	}
	if latest == "" {
		return fallback
	}
	return latest
}

func segments(v string) int {
	return len(strings.Split(v, "."))
}

// compareSegments handles versions semver rejects, e.g. "1.2.3.4".
func compareSegments(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for len(pa) < len(pb) {
		pa = append(pa, "0")
	}
	for len(pb) < len(pa) {
		pb = append(pb, "0")
	}
	for i := range pa {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		default:
			if c := strings.Compare(pa[i], pb[i]); c != 0 {
				return c
			}
		}
	}
	return 0
}
