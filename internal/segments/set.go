package segments

import "sort"

// List is an ordered collection of segments. The algebra operations
// (Union, Intersect, Diff, Duration, Contiguous) require a coalesced
// list; Coalesce establishes that form and every operation returns
// coalesced output, so chains of operations never re-sort.
type List []Segment

// Coalesce returns a new list sorted by start with overlapping and
// adjacent segments merged. Idempotent: Coalesce(Coalesce(l)) == Coalesce(l).
// Empty segments are dropped.
func Coalesce(l List) List {
	if len(l) == 0 {
		return nil
	}
	sorted := make(List, 0, len(l))
	for _, s := range l {
		if !s.IsEmpty() {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	out := make(List, 0, len(sorted))
	for _, s := range sorted {
		if n := len(out); n > 0 && s.Start <= out[n-1].End {
			if s.End > out[n-1].End {
				out[n-1].End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Union returns the coalesced union of l and o.
func (l List) Union(o List) List {
	merged := make(List, 0, len(l)+len(o))
	merged = append(merged, l...)
	merged = append(merged, o...)
	return Coalesce(merged)
}

// Intersect returns the coalesced intersection of l and o.
func (l List) Intersect(o List) List {
	a, b := Coalesce(l), Coalesce(o)
	var out List
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if s := a[i].Intersect(b[j]); !s.IsEmpty() {
			out = append(out, s)
		}
		// advance whichever segment ends first
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Diff returns the coalesced parts of l not covered by o.
func (l List) Diff(o List) List {
	a, b := Coalesce(l), Coalesce(o)
	var out List
	j := 0
	for _, s := range a {
		cur := s.Start
		for j < len(b) && b[j].End <= cur {
			j++
		}
		k := j
		for k < len(b) && b[k].Start < s.End {
			if b[k].Start > cur {
				out = append(out, Segment{Start: cur, End: b[k].Start})
			}
			if b[k].End > cur {
				cur = b[k].End
			}
			k++
		}
		if cur < s.End {
			out = append(out, Segment{Start: cur, End: s.End})
		}
	}
	return out
}

// Duration returns the sum of per-segment durations. For a coalesced
// list this is the covered time; for an overlapping list it counts
// overlaps twice, so Duration(Coalesce(l)) <= Duration(l).
func (l List) Duration() int64 {
	var total int64
	for _, s := range l {
		total += s.Duration()
	}
	return total
}

// Contiguous reports whether the list covers a single unbroken span.
// An empty list is contiguous.
func (l List) Contiguous() bool {
	return len(Coalesce(l)) <= 1
}

// Span returns the segment from the earliest start to the latest end,
// ignoring any gaps. Empty for an empty list.
func (l List) Span() Segment {
	c := Coalesce(l)
	if len(c) == 0 {
		return Segment{}
	}
	return Segment{Start: c[0].Start, End: c[len(c)-1].End}
}

// CacheOverlaps returns the time covered by more than one of the given
// lists, used to sanity-check trigger file sets before merging: a
// non-empty result means two files claim the same data.
func CacheOverlaps(lists ...List) List {
	var all List
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	var overlap, seen List
	for _, s := range all {
		overlap = append(overlap, List{s}.Intersect(seen)...)
		seen = append(seen, s)
	}
	return Coalesce(overlap)
}
