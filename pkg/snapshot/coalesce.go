package snapshot

import (
	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// GroupByRidOp groups b's raw half-events by (rid, op) and merges each
// group into a single CoalescedRecord, taking the null-tolerant max of
// St, Et and DocCount, and the single non-null value of every
// dimension field. At most one row per (rid, op) is ever returned.
//
// When a group has more than two contributing half-events and its
// dimension fields disagree (more than one distinct non-null value for
// the same column) it logs an InvariantViolation at warn. Conflicting
// values are always reconciled using the max rule rather than
// rejecting the group; a two-event group that disagrees is reconciled
// the same way but is not logged.
func GroupByRidOp(b *WindowBuffer, log *logging.Logger) ([]types.CoalescedRecord, error) {
	if err := b.batcher.Flush(); err != nil {
		return nil, err
	}

	keys := b.index.ridOpKeys()
	records := make([]types.CoalescedRecord, 0, len(keys))

	for _, key := range keys {
		events := b.index.eventsFor(key)
		if len(events) == 0 {
			continue
		}

		rec := types.CoalescedRecord{
			Dimensions: types.Dimensions{RID: key.RID, Operation: key.Op},
		}

		var shards, indexes, tids, roles []string
		for _, ev := range events {
			shards = appendNonEmpty(shards, ev.ShardID)
			indexes = appendNonEmpty(indexes, ev.IndexName)
			tids = appendNonEmpty(tids, ev.TID)
			roles = appendNonEmpty(roles, ev.ShardRole)

			rec.St = maxNullableInt64(rec.St, ev.St)
			rec.Et = maxNullableInt64(rec.Et, ev.Et)
			rec.DocCount = maxNullableInt64(rec.DocCount, ev.DocCount)
		}

		rec.ShardID = maxString(shards)
		rec.IndexName = maxString(indexes)
		rec.TID = maxString(tids)
		rec.ShardRole = maxString(roles)

		if len(events) > 2 && (hasConflict(shards) || hasConflict(indexes) || hasConflict(tids) || hasConflict(roles)) {
			log.Warn("%v: rid=%s op=%s has %d half-events with conflicting dimensions, reconciled via max",
				ErrInvariantViolation, key.RID, key.Op, len(events))
		}

		records = append(records, rec)
	}

	return records, nil
}

func appendNonEmpty(s []string, v string) []string {
	if v == "" {
		return s
	}
	return append(s, v)
}

// hasConflict reports whether vals contains more than one distinct
// value.
func hasConflict(vals []string) bool {
	if len(vals) < 2 {
		return false
	}
	first := vals[0]
	for _, v := range vals[1:] {
		if v != first {
			return true
		}
	}
	return false
}

// maxString implements the relational max() used by the original
// query: lexically greatest, but semantically "the one non-null
// value" since non-null values within a group are expected equal.
func maxString(vals []string) string {
	var max string
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	return max
}

// maxNullableInt64 implements max(NULL, x) = x over *int64.
func maxNullableInt64(a, b *int64) *int64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *b > *a {
		return b
	}
	return a
}
