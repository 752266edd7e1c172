package snapshot

import (
	"math"
	"testing"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

func TestThreadUtilizationSumsToOne(t *testing.T) {
	// S6 — two shardquery and two shardfetch requests on one thread.
	// Clipped latencies 255, 265, 1, 3 sum to ttime=524, giving ratios
	// approximately {0.4866, 0.5057, 0.0019, 0.0057}.
	windowStart := int64(0)
	delta := int64(10000)

	b := newTestBuffer(t, windowStart)
	log := logging.New()

	type req struct {
		rid string
		op  string
		lat int64
	}
	reqs := []req{
		{"r1", "shardquery", 255},
		{"r2", "shardquery", 265},
		{"r3", "shardfetch", 1},
		{"r4", "shardfetch", 3},
	}

	var st int64 = 100
	for _, r := range reqs {
		dims := types.Dimensions{RID: r.rid, TID: "t1", Operation: r.op}
		b.PutStart(st, dims)
		b.PutEnd(st+r.lat, dims)
		st += r.lat + 10
	}

	rows, err := ThreadUtilization(b, log, windowStart, delta)
	if err != nil {
		t.Fatalf("ThreadUtilization: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	var sum float64
	for _, r := range rows {
		if r.TTime != 524 {
			t.Errorf("ttime = %d, want 524", r.TTime)
		}
		sum += r.TUtil
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("tutil values summed to %v, want 1.0", sum)
	}
}

func TestThreadUtilizationExcludesZeroTTimeThreads(t *testing.T) {
	windowStart := int64(1000)
	delta := int64(5000)

	b := newTestBuffer(t, windowStart)
	log := logging.New()

	// Entirely before the window: clips to zero width, so ttime == 0
	// for this thread and it must be excluded rather than producing
	// a divide-by-zero NaN.
	dims := types.Dimensions{RID: "r1", TID: "t1", Operation: "shardquery"}
	b.PutStart(10, dims)
	b.PutEnd(20, dims)

	rows, err := ThreadUtilization(b, log, windowStart, delta)
	if err != nil {
		t.Fatalf("ThreadUtilization: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected zero-ttime thread excluded, got %d rows", len(rows))
	}
}
