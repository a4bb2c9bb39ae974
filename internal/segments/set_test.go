package segments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce_MergesOverlapAndAdjacency(t *testing.T) {
	l := List{{10, 20}, {0, 5}, {5, 12}, {30, 40}}
	got := Coalesce(l)
	assert.Equal(t, List{{0, 20}, {30, 40}}, got)
}

func TestCoalesce_Idempotent(t *testing.T) {
	l := List{{0, 10}, {5, 25}, {40, 50}, {50, 60}}
	once := Coalesce(l)
	twice := Coalesce(once)
	assert.Equal(t, once, twice)
}

func TestCoalesce_DropsEmpty(t *testing.T) {
	got := Coalesce(List{{5, 5}, {0, 2}})
	assert.Equal(t, List{{0, 2}}, got)
}

func TestCoalesce_Empty(t *testing.T) {
	assert.Nil(t, Coalesce(nil))
	assert.Nil(t, Coalesce(List{}))
}

func TestCoalesce_NeverIncreasesDuration(t *testing.T) {
	cases := []List{
		{{0, 10}, {5, 15}},
		{{0, 10}, {0, 10}},
		{{0, 100}},
		{{0, 1}, {2, 3}, {4, 5}},
	}
	for _, l := range cases {
		assert.LessOrEqual(t, Coalesce(l).Duration(), l.Duration())
	}
}

func TestUnion(t *testing.T) {
	a := List{{0, 10}, {20, 30}}
	b := List{{5, 22}, {40, 50}}
	assert.Equal(t, List{{0, 30}, {40, 50}}, a.Union(b))
}

func TestIntersect(t *testing.T) {
	a := List{{0, 10}, {20, 30}}
	b := List{{5, 25}}
	assert.Equal(t, List{{5, 10}, {20, 25}}, a.Intersect(b))
}

func TestIntersect_Disjoint(t *testing.T) {
	a := List{{0, 10}}
	b := List{{10, 20}}
	assert.Empty(t, a.Intersect(b))
}

func TestDiff(t *testing.T) {
	a := List{{0, 100}}
	b := List{{0, 40}, {60, 100}}
	assert.Equal(t, List{{40, 60}}, a.Diff(b))
}

func TestDiff_NoOverlap(t *testing.T) {
	a := List{{0, 10}}
	b := List{{20, 30}}
	assert.Equal(t, a, a.Diff(b))
}

func TestDiff_FullCoverage(t *testing.T) {
	a := List{{10, 20}}
	b := List{{0, 30}}
	assert.Empty(t, a.Diff(b))
}

func TestDuration(t *testing.T) {
	l := List{{0, 10}, {20, 25}}
	assert.Equal(t, int64(15), l.Duration())
}

func TestContiguous(t *testing.T) {
	assert.True(t, List{}.Contiguous())
	assert.True(t, List{{0, 10}, {10, 20}}.Contiguous())
	assert.False(t, List{{0, 10}, {11, 20}}.Contiguous())
}

func TestSpan(t *testing.T) {
	l := List{{10, 20}, {40, 50}}
	assert.Equal(t, Segment{Start: 10, End: 50}, l.Span())
	assert.True(t, List{}.Span().IsEmpty())
}

func TestCacheOverlaps(t *testing.T) {
	a := List{{0, 10}, {10, 20}}
	b := List{{15, 30}}
	assert.Equal(t, List{{15, 20}}, CacheOverlaps(a, b))
}

func TestCacheOverlaps_Disjoint(t *testing.T) {
	a := List{{0, 10}}
	b := List{{10, 20}}
	assert.Empty(t, CacheOverlaps(a, b))
}
