package params

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParameters() Parameters {
	return Parameters{
		Chunk:          64,
		Segment:        64,
		Overlap:        8,
		FrequencyRange: [2]float64{4, 8192},
		Channels:       []string{"L1:GDS-CALIB_STRAIN"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validParameters().Validate())
}

func TestValidate_SegmentLongerThanChunk(t *testing.T) {
	p := validParameters()
	p.Chunk = 32
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidParameters(err))
	assert.Contains(t, err.Error(), "segment duration")
}

func TestValidate_OverlapLongerThanSegment(t *testing.T) {
	p := validParameters()
	p.Overlap = 128
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap duration")
}

func TestValidate_ZeroOverlap(t *testing.T) {
	p := Parameters{Chunk: 4, Segment: 4, Overlap: 0}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidParameters(err))
	assert.Contains(t, err.Error(), "positive")
}

func TestValidate_OddOverlap(t *testing.T) {
	p := validParameters()
	p.Overlap = 7
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-integer")
}

func TestValidate_NonIntegerChunkCount(t *testing.T) {
	p := Parameters{Chunk: 128, Segment: 65, Overlap: 8}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidParameters(err))
	assert.Contains(t, err.Error(), "integer number of segments")
}

func TestValidate_OverlapEqualsSegment(t *testing.T) {
	p := Parameters{Chunk: 64, Segment: 8, Overlap: 8}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidParameters(err))
}

func TestValidate_FirstViolationWins(t *testing.T) {
	// both the chunk/segment and the overlap invariants fail; the
	// reason cites the first check in order
	p := Parameters{Chunk: 4, Segment: 8, Overlap: 16}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment duration")
}

func TestValidate_FrequencyResolution(t *testing.T) {
	p := validParameters()
	p.SampleFrequency = 16384
	require.NoError(t, p.Validate())

	short := Parameters{
		Chunk:           4,
		Segment:         4,
		Overlap:         2,
		FrequencyRange:  [2]float64{4, 8192},
		SampleFrequency: 16384,
	}
	err := short.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidParameters(err))
	assert.Contains(t, err.Error(), "lower-frequency bound")
}

func TestValidate_SubHertzLowerBound(t *testing.T) {
	// flow < 1Hz grows the PSD to the next power of two; chunk-overlap
	// must cover at least 128s at 512Hz
	p := Parameters{
		Chunk:           136,
		Segment:         136,
		Overlap:         8,
		FrequencyRange:  [2]float64{0.5, 256},
		SampleFrequency: 512,
	}
	require.NoError(t, p.Validate())

	p.Chunk, p.Segment = 128, 128
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidParameters(err))
}

func TestValidate_SkipsResolutionCheckWithoutRate(t *testing.T) {
	p := Parameters{
		Chunk:          4,
		Segment:        4,
		Overlap:        2,
		FrequencyRange: [2]float64{4, 8192},
	}
	require.NoError(t, p.Validate())
}

func TestInnerDurations(t *testing.T) {
	p := validParameters()
	assert.Equal(t, int64(56), p.InnerSegment())
	assert.Equal(t, int64(56), p.InnerChunk())
}

func TestInvalidParametersError_Message(t *testing.T) {
	err := &InvalidParametersError{Reason: "because"}
	assert.True(t, strings.HasPrefix(err.Error(), "params: invalid parameters:"))
	assert.False(t, IsInvalidParameters(assert.AnError))
}
