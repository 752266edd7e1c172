package snapshot

import (
	"testing"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

func TestGroupByRidOpAtMostOneRowPerKey(t *testing.T) {
	b := newTestBuffer(t, 0)
	log := logging.New()

	dims := types.Dimensions{RID: "r1", TID: "t1", Operation: "shardfetch"}
	b.PutStart(10, dims)
	b.PutEnd(20, dims)
	// A duplicate start, which must still coalesce to one row.
	b.PutStart(10, dims)

	records, err := GroupByRidOp(b, log)
	if err != nil {
		t.Fatalf("GroupByRidOp: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 row for (r1, shardfetch), got %d", len(records))
	}
}

func TestGroupByRidOpIdempotent(t *testing.T) {
	b := newTestBuffer(t, 0)
	log := logging.New()

	dims := types.Dimensions{RID: "r1", TID: "t1", Operation: "shardquery"}
	b.PutStart(10, dims)
	b.PutEnd(20, dims)

	first, err := GroupByRidOp(b, log)
	if err != nil {
		t.Fatalf("GroupByRidOp: %v", err)
	}
	second, err := GroupByRidOp(b, log)
	if err != nil {
		t.Fatalf("GroupByRidOp: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical row counts across calls, got %d and %d", len(first), len(second))
	}
	if *first[0].St != *second[0].St || *first[0].Et != *second[0].Et {
		t.Fatalf("expected identical values across calls")
	}
}

func TestGroupByRidOpConflictingDimensionsReconciledViaMax(t *testing.T) {
	b := newTestBuffer(t, 0)
	log := logging.New()

	// Three half-events for the same (rid, op) with disagreeing shard
	// IDs: tolerated, reconciled via the lexical max, not rejected.
	b.PutStart(10, types.Dimensions{RID: "r1", Operation: "shardbulk", ShardID: "0"})
	b.PutEnd(20, types.Dimensions{RID: "r1", Operation: "shardbulk", ShardID: "1"})
	b.PutStart(10, types.Dimensions{RID: "r1", Operation: "shardbulk", ShardID: "2"})

	records, err := GroupByRidOp(b, log)
	if err != nil {
		t.Fatalf("GroupByRidOp: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 reconciled row, got %d", len(records))
	}
	if records[0].ShardID != "2" {
		t.Errorf("expected max shard id '2', got %q", records[0].ShardID)
	}
}

func TestGroupByRidOpNullTolerantMax(t *testing.T) {
	if got := maxNullableInt64(nil, int64Ptr(5)); got == nil || *got != 5 {
		t.Errorf("max(nil, 5) = %v, want 5", got)
	}
	if got := maxNullableInt64(int64Ptr(5), nil); got == nil || *got != 5 {
		t.Errorf("max(5, nil) = %v, want 5", got)
	}
	if got := maxNullableInt64(int64Ptr(3), int64Ptr(7)); got == nil || *got != 7 {
		t.Errorf("max(3, 7) = %v, want 7", got)
	}
}
