package segments

// PredictOutput computes the exact set of file segments an analysis run
// over span will write, given the chunk, segment and overlap durations
// and the engine version.
//
// The engine pads half the overlap at each end of the span, then writes
// files of a fixed duration: chunk-overlap for engines before the v2r2
// layout change, segment-overlap from v2r2 on. When the remaining span
// at the tail is shorter than a full file but longer than one inner
// segment, the engine writes as many full inner-segment files as fit
// and one shorter file for the true remainder. Nothing is dropped: the
// returned list covers [span.Start+overlap/2, span.End-overlap/2)
// exactly, so the total predicted duration always equals the effective
// span.
func PredictOutput(span Segment, chunk, segment, overlap int64, v Version) List {
	padding := overlap / 2
	fstart := span.Start + padding
	fend := span.End - padding
	fseg := segment - overlap
	fdur := chunk - overlap
	if v.AtLeast(FileLayoutChange) {
		fdur = fseg
	}

	var out List
	for t := fstart; t < fend; {
		e := min(t+fdur, fend)
		d := e - t
		if fseg < d && d < fdur {
			// short tail: full inner-segment files, then the remainder
			nseg := d / fseg * fseg
			out = append(out, Segment{Start: t, End: t + nseg})
			if nseg != d {
				out = append(out, Segment{Start: t + nseg, End: t + d})
			}
		} else {
			out = append(out, Segment{Start: t, End: e})
		}
		t = e
	}
	return out
}
