package segments

// PartitionJobs splits a long span into batch-job windows, each
// covering roughly chunksPerJob chunks. Within a window the first chunk
// contributes its full duration and every subsequent chunk contributes
// chunk-overlap, matching the per-chunk overlap semantics of the
// analysis engine. Consecutive windows overlap by exactly overlap so
// the half-overlap padding discarded at window edges never leaves a
// hole in coverage.
//
// A span no longer than one chunk is returned as a single window.
// Remainder absorption: if the trailing window would be shorter than
// one full chunk it is merged into the previous window instead of
// being emitted as an under-sized job.
func PartitionJobs(span Segment, chunk, overlap int64, chunksPerJob int) List {
	if span.Duration() <= chunk {
		return List{span}
	}
	target := chunk * int64(chunksPerJob)
	var out List
	t := span.Start
	for t < span.End-overlap {
		seg := Segment{Start: t, End: t}
		c := chunk
		for seg.Duration() < target && seg.End < span.End {
			seg.End = min(seg.End+c, span.End)
			c = chunk - overlap
		}
		if seg.Duration() < chunk {
			out[len(out)-1].End = seg.End
		} else {
			out = append(out, seg)
		}
		t = seg.End - overlap
	}
	return out
}
