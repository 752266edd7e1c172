package snapshot

import (
	"testing"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

func newTestBuffer(t *testing.T, windowStart int64) *WindowBuffer {
	t.Helper()
	b, err := NewWindowBuffer(windowStart, logging.New())
	if err != nil {
		t.Fatalf("NewWindowBuffer: %v", err)
	}
	t.Cleanup(func() {
		_ = b.Destroy()
	})
	return b
}

func TestPutStartPutEndRoundTrip(t *testing.T) {
	b := newTestBuffer(t, 1535065340000)

	dims := types.Dimensions{
		ShardID:   "0",
		IndexName: "sonested",
		RID:       "2447782",
		TID:       "7069",
		Operation: "shardquery",
		ShardRole: "NA",
	}

	b.PutStart(1535065340330, dims)
	b.PutEnd(1535065340625, dims)

	records, err := GroupByRidOp(b, logging.New())
	if err != nil {
		t.Fatalf("GroupByRidOp: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 coalesced record, got %d", len(records))
	}

	r := records[0]
	if r.St == nil || *r.St != 1535065340330 {
		t.Errorf("expected st=1535065340330, got %v", r.St)
	}
	if r.Et == nil || *r.Et != 1535065340625 {
		t.Errorf("expected et=1535065340625, got %v", r.Et)
	}
	if r.ShardID != dims.ShardID || r.IndexName != dims.IndexName || r.TID != dims.TID || r.ShardRole != dims.ShardRole {
		t.Errorf("dimensions not preserved: %+v", r)
	}
}

func TestFetchAllReturnsRawRows(t *testing.T) {
	b := newTestBuffer(t, 1535065340000)

	dims := types.Dimensions{RID: "r1", TID: "t1", Operation: "shardquery"}
	b.PutStart(100, dims)
	b.PutEnd(200, dims)

	all, err := b.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 raw rows, got %d", len(all))
	}
}

func TestPutBatchAppendsEveryEvent(t *testing.T) {
	b := newTestBuffer(t, 1535065340000)

	events := []types.HalfEvent{
		{Dimensions: types.Dimensions{RID: "a", Operation: "shardquery"}, St: int64Ptr(1)},
		{Dimensions: types.Dimensions{RID: "b", Operation: "shardquery"}, St: int64Ptr(2)},
	}

	if err := b.PutBatch(events); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}

	all, err := b.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}

func TestDestroyedBufferRejectsWrites(t *testing.T) {
	b, err := NewWindowBuffer(1535065340000, logging.New())
	if err != nil {
		t.Fatalf("NewWindowBuffer: %v", err)
	}
	if err := b.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	err = b.PutBatch([]types.HalfEvent{{Dimensions: types.Dimensions{RID: "x"}}})
	if err == nil {
		t.Fatalf("expected error writing to destroyed buffer")
	}
}

func int64Ptr(v int64) *int64 { return &v }
