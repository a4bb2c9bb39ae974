// Package segments implements the interval algebra that underpins the
// pipeline: closed-open [start, end) GPS-time segments, coalesced segment
// lists with union/intersection/difference, the output-file predictor, and
// the per-job partitioner.
//
// Everything in this package is pure: no I/O except the explicit segment
// file readers/writers, no shared state, integer arithmetic throughout.
//
// # Time model
//
// GPS times are int64 seconds. A Segment covers [Start, End); adjacent
// segments (next.Start == prev.End) coalesce into one. A List is always
// kept sorted by start and coalesced, so Duration, Diff and friends can
// assume disjoint inputs.
package segments
