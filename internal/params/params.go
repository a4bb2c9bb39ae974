package params

import (
	"errors"
	"fmt"
	"math"

	"github.com/trigpipe/trigpipe/internal/segments"
)

// Parameters is the partitioning configuration for one channel group.
// Durations are integer seconds of GPS time.
type Parameters struct {
	Chunk   int64 // CHUNKDURATION: atomic unit processed by one invocation
	Segment int64 // SEGMENTDURATION: spectral-estimation subdivision of a chunk
	Overlap int64 // OVERLAPDURATION: shared between adjacent chunks/segments

	// FrequencyRange is the [low, high] search band in Hz.
	FrequencyRange [2]float64

	// QRange is the optional [low, high] Q search range.
	QRange [2]float64

	// SampleFrequency enables the frequency-resolution check when set.
	SampleFrequency float64

	Channels []string

	EngineVersion segments.Version
}

// InvalidParametersError reports the first violated parameter
// invariant. Never recovered locally: callers abort the operation.
type InvalidParametersError struct {
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return "params: invalid parameters: " + e.Reason
}

// IsInvalidParameters reports whether err is an InvalidParametersError,
// unwrapping as needed.
func IsInvalidParameters(err error) bool {
	var ie *InvalidParametersError
	return errors.As(err, &ie)
}

// InnerSegment returns the net, non-overlapping contribution of one
// segment: Segment - Overlap.
func (p Parameters) InnerSegment() int64 {
	return p.Segment - p.Overlap
}

// InnerChunk returns Chunk - Overlap.
func (p Parameters) InnerChunk() int64 {
	return p.Chunk - p.Overlap
}

// Validate checks the engine's parameter invariants in order and
// returns an InvalidParametersError naming the first violation:
//
//  1. segment duration no longer than chunk duration
//  2. overlap no longer than segment duration
//  3. overlap positive and even (half-overlap padding must be a
//     positive integer)
//  4. the inner chunk holds an integer number of inner segments
//  5. with a sample frequency, the chunk is long enough to resolve the
//     requested low-frequency bound
//
// No partial validation state is exposed: either all invariants hold or
// the first failure is returned.
func (p Parameters) Validate() error {
	if p.Segment > p.Chunk {
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"segment duration (%d) is greater than chunk duration (%d)",
			p.Segment, p.Chunk)}
	}
	if p.Overlap > p.Segment {
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"overlap duration (%d) is greater than segment duration (%d)",
			p.Overlap, p.Segment)}
	}
	if p.Overlap <= 0 {
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"overlap duration (%d) must be positive", p.Overlap)}
	}
	if p.Overlap%2 != 0 {
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"padding (overlap/2) is non-integer for overlap %d", p.Overlap)}
	}
	if p.InnerSegment() == 0 {
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"overlap duration (%d) equals segment duration", p.Overlap)}
	}
	if rem := p.InnerChunk() % p.InnerSegment(); rem != 0 {
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"chunk duration doesn't allow an integer number of segments, %ds too large", rem)}
	}
	if p.SampleFrequency > 0 {
		if err := p.checkFrequencyResolution(); err != nil {
			return err
		}
	}
	return nil
}

// checkFrequencyResolution verifies the chunk is long enough for the
// engine's PSD estimation to resolve the low-frequency bound. The
// formulas mirror the engine's own internal sizing, including the
// power-of-two PSD length for sub-1Hz bounds.
func (p Parameters) checkFrequencyResolution() error {
	rate := p.SampleFrequency
	var psdSize float64
	if flow := p.FrequencyRange[0]; flow < 1 {
		x := 10 * math.Floor(rate/flow)
		psdSize = 2 * math.Exp2(math.Ceil(math.Log2(x)))
	} else {
		psdSize = 2 * rate
	}
	psdLen := psdSize / rate
	chunkSamples := float64(p.Chunk) * rate
	overlapSamples := float64(p.Overlap) * rate
	if chunkSamples-overlapSamples < 2*psdSize {
		minFlow := 5 * rate / math.Exp(math.Log2(float64(p.InnerChunk())/4))
		return &InvalidParametersError{Reason: fmt.Sprintf(
			"chunk duration not large enough to resolve lower-frequency bound, "+
				"need at least %ds; minimum lower-frequency bound for this "+
				"chunk duration is %.2gHz",
			int64(2*psdLen)+p.Overlap, minFlow)}
	}
	return nil
}
