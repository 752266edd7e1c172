package snapshot

import (
	"sort"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// InflightDetector identifies which open (start-only) coalesced
// records represent genuinely running work, versus orphans left by a
// lost end-event. A record is inflight when:
//
//   - St is not null (a start was observed),
//   - Et is null (no end was observed),
//   - St is within the expiry horizon of windowStart,
//   - St started inside the closing window (St > windowStart), or it
//     is the most recent start observed on its thread.
//
// The disjunction is the thread-singularity invariant at work: a
// thread can only really run one request at a time, so of several
// open starts on the same thread, all but the newest must be orphans
// from a lost end-event.
func InflightDetector(b *WindowBuffer, log *logging.Logger, windowStart, expiryHorizon int64) ([]types.InflightRecord, error) {
	records, err := GroupByRidOp(b, log)
	if err != nil {
		return nil, err
	}

	threadLatest := make(map[string]int64)
	for _, r := range records {
		if r.St == nil {
			continue
		}
		if cur, ok := threadLatest[r.TID]; !ok || *r.St > cur {
			threadLatest[r.TID] = *r.St
		}
	}

	expireBefore := windowStart - expiryHorizon

	out := make([]types.InflightRecord, 0)
	for _, r := range records {
		if r.St == nil || r.Et != nil {
			continue
		}
		if *r.St <= expireBefore {
			continue
		}
		latest := threadLatest[r.TID]
		if !(*r.St > windowStart || *r.St == latest) {
			continue
		}

		out = append(out, types.InflightRecord{
			Dimensions: r.Dimensions,
			St:         *r.St,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TID != out[j].TID {
			return out[i].TID < out[j].TID
		}
		return out[i].RID < out[j].RID
	})

	return out, nil
}
