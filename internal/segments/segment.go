package segments

import "fmt"

// Segment is a closed-open interval [Start, End) of integer GPS time.
// The zero value is the empty segment [0, 0). Segments are immutable
// values; operations return new segments.
type Segment struct {
	Start int64
	End   int64
}

// New builds a segment, rejecting start > end with ErrInvalidSegment.
func New(start, end int64) (Segment, error) {
	if start > end {
		return Segment{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidSegment, start, end)
	}
	return Segment{Start: start, End: end}, nil
}

// Duration returns End - Start.
func (s Segment) Duration() int64 {
	return s.End - s.Start
}

// IsEmpty reports whether the segment covers no time.
func (s Segment) IsEmpty() bool {
	return s.End <= s.Start
}

// Overlaps reports whether s and o share any time.
// Touching segments ([0,10) and [10,20)) do not overlap.
func (s Segment) Overlaps(o Segment) bool {
	return s.Start < o.End && o.Start < s.End
}

// Intersect returns the common part of s and o, empty if disjoint.
func (s Segment) Intersect(o Segment) Segment {
	start := max(s.Start, o.Start)
	end := min(s.End, o.End)
	if start >= end {
		return Segment{}
	}
	return Segment{Start: start, End: end}
}

// Contains reports whether t lies within [Start, End).
func (s Segment) Contains(t int64) bool {
	return t >= s.Start && t < s.End
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
