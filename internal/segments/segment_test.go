package segments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Valid(t *testing.T) {
	s, err := New(100, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(100), s.Start)
	assert.Equal(t, int64(200), s.End)
	assert.Equal(t, int64(100), s.Duration())
}

func TestNew_ZeroDuration(t *testing.T) {
	s, err := New(100, 100)
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
}

func TestNew_StartAfterEnd(t *testing.T) {
	_, err := New(200, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSegment)
}

func TestSegment_Overlaps(t *testing.T) {
	a := Segment{Start: 0, End: 10}
	assert.True(t, a.Overlaps(Segment{Start: 5, End: 15}))
	assert.True(t, a.Overlaps(Segment{Start: -5, End: 1}))
	// closed-open: touching segments do not overlap
	assert.False(t, a.Overlaps(Segment{Start: 10, End: 20}))
	assert.False(t, a.Overlaps(Segment{Start: 20, End: 30}))
}

func TestSegment_Intersect(t *testing.T) {
	a := Segment{Start: 0, End: 10}
	assert.Equal(t, Segment{Start: 5, End: 10}, a.Intersect(Segment{Start: 5, End: 15}))
	assert.True(t, a.Intersect(Segment{Start: 10, End: 20}).IsEmpty())
}

func TestSegment_Contains(t *testing.T) {
	s := Segment{Start: 10, End: 20}
	assert.True(t, s.Contains(10))
	assert.True(t, s.Contains(19))
	assert.False(t, s.Contains(20))
	assert.False(t, s.Contains(9))
}

func TestSegment_String(t *testing.T) {
	assert.Equal(t, "[0, 64)", Segment{Start: 0, End: 64}.String())
}
