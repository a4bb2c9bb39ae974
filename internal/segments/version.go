package segments

import (
	"fmt"
	"regexp"
	"strconv"
)

// Version is an analysis-engine version of the form vXrY or vXrYpZ.
// The file layout written by the engine changed at v2r2: older engines
// emit one file per chunk, newer ones emit one file per segment.
type Version struct {
	Major int
	Minor int
	Patch int
}

// FileLayoutChange is the version at which the engine switched from
// chunk-sized to segment-sized output files.
var FileLayoutChange = Version{Major: 2, Minor: 2}

var versionPattern = regexp.MustCompile(`^v([0-9]+)r([0-9]+)(?:p([0-9]+))?$`)

// ParseVersion parses a vXrY[pZ] version string.
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("segments: invalid engine version %q", s)
	}
	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// Compare returns -1, 0 or 1 as v is older than, equal to, or newer
// than o.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return sign(v.Major - o.Major)
	}
	if v.Minor != o.Minor {
		return sign(v.Minor - o.Minor)
	}
	return sign(v.Patch - o.Patch)
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}

func (v Version) String() string {
	if v.Patch > 0 {
		return fmt.Sprintf("v%dr%dp%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("v%dr%d", v.Major, v.Minor)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
