package snapshot

import (
	"sort"
	"sync"

	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// ridOpKey identifies a coalescing group: one request id and one
// operation name.
type ridOpKey struct {
	RID string
	Op  string
}

// bufferIndex is the in-memory inverted index over one WindowBuffer's
// raw rows, keyed by (rid, op) and by tid. GroupByRidOp reads each
// group through the (rid, op) index instead of a full store scan; the
// tid index backs FetchEventsForThread.
type bufferIndex struct {
	mu     sync.RWMutex
	events map[uint64]types.HalfEvent
	ridOp  map[ridOpKey][]uint64
	tid    map[string][]uint64
}

func newBufferIndex() *bufferIndex {
	return &bufferIndex{
		events: make(map[uint64]types.HalfEvent),
		ridOp:  make(map[ridOpKey][]uint64),
		tid:    make(map[string][]uint64),
	}
}

// add indexes one raw half-event under its sequence number.
func (x *bufferIndex) add(seq uint64, ev types.HalfEvent) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.events[seq] = ev

	key := ridOpKey{RID: ev.RID, Op: ev.Operation}
	x.ridOp[key] = append(x.ridOp[key], seq)

	if ev.TID != "" {
		x.tid[ev.TID] = append(x.tid[ev.TID], seq)
	}
}

// ridOpKeys returns every distinct (rid, op) key currently indexed, in
// a deterministic order so callers get stable, idempotent output
// across calls with no new inserts.
func (x *bufferIndex) ridOpKeys() []ridOpKey {
	x.mu.RLock()
	defer x.mu.RUnlock()

	keys := make([]ridOpKey, 0, len(x.ridOp))
	for k := range x.ridOp {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RID != keys[j].RID {
			return keys[i].RID < keys[j].RID
		}
		return keys[i].Op < keys[j].Op
	})
	return keys
}

// eventsFor returns every raw half-event sharing the given (rid, op)
// key, in insertion order.
func (x *bufferIndex) eventsFor(key ridOpKey) []types.HalfEvent {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seqs := x.ridOp[key]
	out := make([]types.HalfEvent, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, x.events[seq])
	}
	return out
}

// eventsForTID returns every raw half-event seen on the given thread,
// in insertion order. Used for debug/diagnostic inspection of a
// thread's activity within a window.
func (x *bufferIndex) eventsForTID(tid string) []types.HalfEvent {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seqs := x.tid[tid]
	out := make([]types.HalfEvent, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, x.events[seq])
	}
	return out
}
