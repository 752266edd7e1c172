package snapshot

import (
	"sort"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// Latency returns one row per (rid, op) with both St and Et present,
// and the derived latency. A coalesced record with Et < St is
// malformed (violates the st ≤ et invariant) and is excluded rather
// than surfaced as a negative latency.
func Latency(b *WindowBuffer, log *logging.Logger) ([]types.LatencyRecord, error) {
	records, err := GroupByRidOp(b, log)
	if err != nil {
		return nil, err
	}

	out := make([]types.LatencyRecord, 0, len(records))
	for _, r := range records {
		if r.St == nil || r.Et == nil {
			continue
		}
		if *r.Et < *r.St {
			log.Warn("malformed record rid=%s op=%s: et(%d) < st(%d), excluded from latency views",
				r.RID, r.Operation, *r.Et, *r.St)
			continue
		}

		out = append(out, types.LatencyRecord{
			Dimensions: r.Dimensions,
			St:         *r.St,
			Et:         *r.Et,
			Lat:        *r.Et - *r.St,
		})
	}

	return out, nil
}

// opKey groups LatencyByOp rows by (shard, index, op, role).
type opKey struct {
	ShardID   string
	IndexName string
	Operation string
	ShardRole string
}

// LatencyByOp aggregates Latency rows grouped by
// (ShardID, IndexName, Operation, ShardRole): sum/avg/min/max latency,
// a contributing-request count, and total doc count. Empty groups
// never appear, so division by zero cannot occur.
func LatencyByOp(b *WindowBuffer, log *logging.Logger) ([]types.LatencyByOpRecord, error) {
	rows, err := Latency(b, log)
	if err != nil {
		return nil, err
	}

	type acc struct {
		key      opKey
		sum      float64
		min      float64
		max      float64
		count    int
		docCount int64
	}
	groups := make(map[opKey]*acc)
	var order []opKey

	for _, r := range rows {
		k := opKey{ShardID: r.ShardID, IndexName: r.IndexName, Operation: r.Operation, ShardRole: r.ShardRole}
		a, ok := groups[k]
		if !ok {
			a = &acc{key: k, min: float64(r.Lat), max: float64(r.Lat)}
			groups[k] = a
			order = append(order, k)
		}

		lat := float64(r.Lat)
		a.sum += lat
		a.count++
		if lat < a.min {
			a.min = lat
		}
		if lat > a.max {
			a.max = lat
		}
		if r.DocCount != nil {
			a.docCount += *r.DocCount
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].ShardID != order[j].ShardID {
			return order[i].ShardID < order[j].ShardID
		}
		if order[i].IndexName != order[j].IndexName {
			return order[i].IndexName < order[j].IndexName
		}
		if order[i].Operation != order[j].Operation {
			return order[i].Operation < order[j].Operation
		}
		return order[i].ShardRole < order[j].ShardRole
	})

	out := make([]types.LatencyByOpRecord, 0, len(order))
	for _, k := range order {
		a := groups[k]
		out = append(out, types.LatencyByOpRecord{
			ShardID:   k.ShardID,
			IndexName: k.IndexName,
			Operation: k.Operation,
			ShardRole: k.ShardRole,
			SumLat:    a.sum,
			AvgLat:    a.sum / float64(a.count),
			MinLat:    a.min,
			MaxLat:    a.max,
			Count:     a.count,
			DocCount:  a.docCount,
		})
	}

	return out, nil
}

// TimeSpentPerRequest returns the per-request time-in-window view:
// identical to ClippedWindow, with Lat already attached.
func TimeSpentPerRequest(b *WindowBuffer, log *logging.Logger, windowStart, delta int64) ([]types.TimeSpentRecord, error) {
	records, err := GroupByRidOp(b, log)
	if err != nil {
		return nil, err
	}
	return ClippedWindow(records, windowStart, delta), nil
}
