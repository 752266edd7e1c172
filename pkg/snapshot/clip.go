package snapshot

import "github.com/prudhvigodithi/shardmetrics/pkg/types"

// ClippedWindow clamps every CoalescedRecord's interval to
// [windowStart, windowStart+delta), producing the "time spent inside
// the window" for each record:
//
//	st' = clamp(coalesce(max(st), W), W, W+Δ)
//	et' = clamp(coalesce(max(et), W+Δ), W, W+Δ)
//
// A record that started before the window has its start clamped up to
// W; a record that hasn't ended yet (or ended after the window) has
// its end clamped down to W+Δ. A record lying wholly before or after
// the window has both bounds clamped to the same edge, giving zero
// length. Every returned row satisfies
// W ≤ st' ≤ et' ≤ W+Δ.
func ClippedWindow(records []types.CoalescedRecord, windowStart, delta int64) []types.TimeSpentRecord {
	return clipRecords(records, windowStart, delta)
}

func clipRecords(records []types.CoalescedRecord, windowStart, delta int64) []types.TimeSpentRecord {
	windowEnd := windowStart + delta
	out := make([]types.TimeSpentRecord, 0, len(records))

	for _, r := range records {
		// Both bounds are clamped into [windowStart, windowEnd] on
		// both sides (not just a floor on st and a ceiling on et):
		// that is what guarantees a non-negative, in-window interval
		// even for a record that lies entirely on one side of the
		// window (the both-outside edge case collapses to zero
		// length; a record straddling the window collapses to the
		// full window length).
		st := clamp(coalesceInt64(r.St, windowStart), windowStart, windowEnd)
		et := clamp(coalesceInt64(r.Et, windowEnd), windowStart, windowEnd)

		out = append(out, types.TimeSpentRecord{
			Dimensions: r.Dimensions,
			St:         st,
			Et:         et,
			Lat:        et - st,
		})
	}

	return out
}

func coalesceInt64(v *int64, fallback int64) int64 {
	if v == nil {
		return fallback
	}
	return *v
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
