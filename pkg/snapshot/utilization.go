package snapshot

import (
	"sort"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// ThreadUtilization divides each request's clipped latency by the sum
// of clipped latencies on its thread. For any thread with ttime > 0,
// the returned rows' TUtil values sum to 1.0 within floating-point
// tolerance.
//
// A thread whose every contributing request clipped to zero width has
// ttime == 0; such rows are excluded rather than emitting NaN.
func ThreadUtilization(b *WindowBuffer, log *logging.Logger, windowStart, delta int64) ([]types.ThreadUtilizationRecord, error) {
	rows, err := TimeSpentPerRequest(b, log, windowStart, delta)
	if err != nil {
		return nil, err
	}

	ttime := make(map[string]int64)
	for _, r := range rows {
		ttime[r.TID] += r.Lat
	}

	out := make([]types.ThreadUtilizationRecord, 0, len(rows))
	for _, r := range rows {
		tt := ttime[r.TID]
		if tt <= 0 {
			continue
		}

		out = append(out, types.ThreadUtilizationRecord{
			TimeSpentRecord: r,
			TTime:           tt,
			TUtil:           float64(r.Lat) / float64(tt),
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
