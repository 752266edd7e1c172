// Package snapshot implements the shard-request metrics snapshot
// engine: a time-windowed buffer of raw half-events plus the derived
// views (coalescing, clipping, latency, aggregation, thread
// utilization, inflight detection) and the rollover controller that
// carries genuinely in-flight requests from one window into the next.
package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// defaultBatchSize and defaultFlushInterval tune the ingest batcher
// every WindowBuffer wires itself to.
const (
	defaultBatchSize     = 64
	defaultFlushInterval = 50 * time.Millisecond
)

// WindowBuffer stores raw half-events for one sampling window
// [W, W+Δ). It is exclusively owned by whichever RolloverController
// created it: producers call PutStart/PutEnd/PutBatch concurrently,
// and a single analyzer reads derived views from it.
type WindowBuffer struct {
	windowStart int64

	store   *rawStore
	index   *bufferIndex
	batcher *ingestBatcher
	log     *logging.Logger

	mu        sync.Mutex
	seq       uint64
	destroyed bool
}

// NewWindowBuffer creates an empty buffer for the window starting at
// windowStart (an epoch-ms multiple of Δ).
func NewWindowBuffer(windowStart int64, log *logging.Logger) (*WindowBuffer, error) {
	store, err := newRawStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create window buffer for W=%d: %w", windowStart, err)
	}

	b := &WindowBuffer{
		windowStart: windowStart,
		store:       store,
		index:       newBufferIndex(),
		log:         log,
	}
	b.batcher = newIngestBatcher(b, defaultBatchSize, defaultFlushInterval, log)

	return b, nil
}

// WindowStart returns W, this buffer's window start timestamp.
func (b *WindowBuffer) WindowStart() int64 {
	return b.windowStart
}

// PutStart appends a start-only half-event.
func (b *WindowBuffer) PutStart(st int64, dims types.Dimensions) {
	ev := types.HalfEvent{Dimensions: dims, St: &st}
	b.batcher.add(ev)
}

// PutEnd appends an end-only half-event.
func (b *WindowBuffer) PutEnd(et int64, dims types.Dimensions) {
	ev := types.HalfEvent{Dimensions: dims, Et: &et}
	b.batcher.add(ev)
}

// PutBatch atomically-ish appends a slice of half-events, used both
// directly by callers with pre-batched input and internally as the
// ingestBatcher's flush target. A failure writing one event is an
// IngestError: that event is dropped and the rest of the batch still
// proceeds.
func (b *WindowBuffer) PutBatch(events []types.HalfEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return fmt.Errorf("window buffer W=%d is destroyed", b.windowStart)
	}

	for _, ev := range events {
		b.seq++
		seq := b.seq
		if err := b.store.put(seq, ev); err != nil {
			b.log.Error("%v: rid=%s op=%s: %v", ErrIngest, ev.RID, ev.Operation, err)
			continue
		}
		b.index.add(seq, ev)
	}

	return nil
}

// FetchAll returns every raw half-event in the buffer, for debugging
// only.
func (b *WindowBuffer) FetchAll() ([]types.HalfEvent, error) {
	if err := b.batcher.Flush(); err != nil {
		return nil, err
	}
	return b.store.fetchAll()
}

// FetchEventsForThread returns the raw half-events seen on tid within
// this window, for debugging thread-level activity.
func (b *WindowBuffer) FetchEventsForThread(tid string) ([]types.HalfEvent, error) {
	if err := b.batcher.Flush(); err != nil {
		return nil, err
	}
	return b.index.eventsForTID(tid), nil
}

// Destroy tears down the buffer's storage. Once destroyed, a buffer
// must not be read from or written to again (buffer lifetime equals
// exactly one window, per the data model's invariants).
func (b *WindowBuffer) Destroy() error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil
	}
	b.destroyed = true
	b.mu.Unlock()

	if err := b.batcher.Close(); err != nil {
		b.log.Error("error flushing batcher on destroy for W=%d: %v", b.windowStart, err)
	}
	return b.store.close()
}
