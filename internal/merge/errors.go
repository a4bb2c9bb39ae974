package merge

import (
	"fmt"

	"github.com/trigpipe/trigpipe/internal/segments"
)

// DiscontiguousMergeError indicates a strict merge found a channel
// whose files do not form a single contiguous span.
type DiscontiguousMergeError struct {
	Channel string
	Ext     string
	Gaps    segments.List
}

func (e *DiscontiguousMergeError) Error() string {
	return fmt.Sprintf("merge: cannot perform a strict merge on discontiguous data for %s.%s (gaps: %v)",
		e.Channel, e.Ext, e.Gaps)
}

// OverlappingFilesError indicates two trigger files in the same
// (channel, extension) group claiming the same time; merging them
// would double-count triggers.
type OverlappingFilesError struct {
	Channel  string
	Ext      string
	Overlaps segments.List
}

func (e *OverlappingFilesError) Error() string {
	return fmt.Sprintf("merge: trigger files for %s.%s claim overlapping time (%v)",
		e.Channel, e.Ext, e.Overlaps)
}

// UnsupportedExtensionError indicates a trigger file extension with no
// merge strategy.
type UnsupportedExtensionError struct {
	Ext string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("merge: unsupported trigger file extension %q", e.Ext)
}

// ProcessError reports a merge tool that exited non-zero.
type ProcessError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("merge: %s exited %d: %s", e.Cmd, e.ExitCode, e.Stderr)
}
