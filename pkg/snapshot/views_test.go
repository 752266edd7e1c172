package snapshot

import (
	"testing"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

func TestLatencySimpleCompleteRequest(t *testing.T) {
	// S1 — a single complete request with lat=295.
	b := newTestBuffer(t, 1535065340000)
	log := logging.New()

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

	rows, err := Latency(b, log)
	if err != nil {
		t.Fatalf("Latency: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Lat != 295 {
		t.Errorf("lat = %d, want 295", rows[0].Lat)
	}
}

func TestLatencyByOpAggregatesSingleRequest(t *testing.T) {
	b := newTestBuffer(t, 1535065340000)
	log := logging.New()

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

	rows, err := LatencyByOp(b, log)
	if err != nil {
		t.Fatalf("LatencyByOp: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 group, got %d", len(rows))
	}

	r := rows[0]
	if r.SumLat != 295 || r.AvgLat != 295 || r.MinLat != 295 || r.MaxLat != 295 || r.Count != 1 {
		t.Errorf("unexpected aggregates: %+v", r)
	}
}

func TestLatencyByOpAggregatesMultipleRequests(t *testing.T) {
	b := newTestBuffer(t, 0)
	log := logging.New()

	base := types.Dimensions{ShardID: "0", IndexName: "sonested", Operation: "shardquery", ShardRole: "NA"}

	for i, lat := range []int64{100, 200, 300} {
		d := base
		d.RID = "r" + string(rune('0'+i))
		d.TID = "t1"
		b.PutStart(int64(1000), d)
		b.PutEnd(int64(1000+lat), d)
	}

	rows, err := LatencyByOp(b, log)
	if err != nil {
		t.Fatalf("LatencyByOp: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 group, got %d", len(rows))
	}

	r := rows[0]
	if r.SumLat != 600 {
		t.Errorf("sum = %v, want 600", r.SumLat)
	}
	if r.AvgLat != 200 {
		t.Errorf("avg = %v, want 200", r.AvgLat)
	}
	if r.MinLat != 100 || r.MaxLat != 300 {
		t.Errorf("min/max = %v/%v, want 100/300", r.MinLat, r.MaxLat)
	}
	if r.Count != 3 {
		t.Errorf("count = %d, want 3", r.Count)
	}
}

func TestLatencyExcludesMalformedRecords(t *testing.T) {
	b := newTestBuffer(t, 0)
	log := logging.New()

	dims := types.Dimensions{RID: "bad", TID: "t1", Operation: "shardquery"}
	b.PutStart(500, dims)
	b.PutEnd(100, dims) // et < st

	rows, err := Latency(b, log)
	if err != nil {
		t.Fatalf("Latency: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected malformed record excluded, got %d rows", len(rows))
	}
}
