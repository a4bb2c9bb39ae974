package segments

import "errors"

// ErrInvalidSegment indicates a segment with start > end.
// Validation errors are never recovered locally; callers abort.
var ErrInvalidSegment = errors.New("segments: invalid segment (start > end)")

// ErrBadFormat indicates a segment file line that is not two integers.
var ErrBadFormat = errors.New("segments: malformed segment file line")

// ErrEmptyFile indicates a segment file with no segments where at least
// one was required (e.g. resuming from a previous run's state file).
var ErrEmptyFile = errors.New("segments: no segments in file")
