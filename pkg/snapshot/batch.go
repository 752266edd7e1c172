package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/prudhvigodithi/shardmetrics/pkg/types"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
)

// batchSink is the subset of WindowBuffer an ingestBatcher flushes
// into. Defined as an interface so tests can exercise the batcher
// without a real buffer.
type batchSink interface {
	PutBatch(events []types.HalfEvent) error
}

// ingestBatcher buffers individual PutStart/PutEnd calls from many
// concurrent producers and flushes them into the underlying buffer in
// batches, on a size or time trigger. This is the explicit ingress
// serialization point for concurrent producers (see DESIGN.md for the
// batching-without-durability tradeoff this makes).
type ingestBatcher struct {
	sink       batchSink
	log        *logging.Logger
	bufferSize int

	mu      sync.Mutex
	pending []types.HalfEvent
	timer   *time.Timer
	closed  bool
}

// newIngestBatcher creates a batcher that flushes into sink whenever
// bufferSize events are pending, or every flushInterval, whichever
// comes first.
func newIngestBatcher(sink batchSink, bufferSize int, flushInterval time.Duration, log *logging.Logger) *ingestBatcher {
	b := &ingestBatcher{
		sink:       sink,
		log:        log,
		bufferSize: bufferSize,
		pending:    make([]types.HalfEvent, 0, bufferSize),
	}
	b.timer = time.AfterFunc(flushInterval, func() { b.autoFlush(flushInterval) })
	return b
}

// add enqueues one half-event, flushing immediately if the buffer is
// now full. Failures are IngestError: logged, event dropped, ingest
// continues — add itself never returns an error for that reason.
func (b *ingestBatcher) add(ev types.HalfEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.log.Error("%v: batcher closed, dropping event for rid=%s op=%s", ErrIngest, ev.RID, ev.Operation)
		return
	}

	b.pending = append(b.pending, ev)
	if len(b.pending) >= b.bufferSize {
		b.flushLocked()
	}
}

// Flush forces any pending events into the sink now.
func (b *ingestBatcher) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *ingestBatcher) flushLocked() error {
	if len(b.pending) == 0 {
		return nil
	}

	batch := b.pending
	b.pending = make([]types.HalfEvent, 0, b.bufferSize)

	if err := b.sink.PutBatch(batch); err != nil {
		b.log.Error("%v: %v", ErrIngest, err)
		return fmt.Errorf("%w: %v", ErrIngest, err)
	}
	return nil
}

func (b *ingestBatcher) autoFlush(interval time.Duration) {
	_ = b.Flush()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.timer.Reset(interval)
	}
}

// Close stops the auto-flush timer and performs one final flush.
func (b *ingestBatcher) Close() error {
	b.mu.Lock()
	b.closed = true
	b.timer.Stop()
	b.mu.Unlock()

	return b.Flush()
}
