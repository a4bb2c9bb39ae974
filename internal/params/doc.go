// Package params holds the partitioning configuration consumed by the
// analysis engine: chunk/segment/overlap durations, frequency range and
// channel list. It validates the configuration against the engine's
// constraints and reads/writes the engine's whitespace-delimited
// parameters file format.
//
// A Parameters value is validated once and treated as immutable
// afterwards; changing a parameter means building a new value and
// validating again.
package params
