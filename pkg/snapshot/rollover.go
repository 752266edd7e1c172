package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/prudhvigodithi/shardmetrics/internal/config"
	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// RolloverController owns the sequence of WindowBuffers: it creates
// each new buffer at a window boundary, drains the prior buffer's
// inflight requests into it, publishes the prior buffer's aggregation
// views for downstream consumers, and destroys the prior buffer after
// a deadline. It is the only writer of rc.current; callers only ever
// read it through Current().
type RolloverController struct {
	cfg *config.Config
	log *logging.Logger

	cache    *viewCache
	archiver *debugArchiver

	mu      sync.Mutex
	current *WindowBuffer

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRolloverController creates the first WindowBuffer at
// initialWindowStart and the supporting view cache / debug archiver.
func NewRolloverController(cfg *config.Config, log *logging.Logger, initialWindowStart int64) (*RolloverController, error) {
	first, err := NewWindowBuffer(initialWindowStart, log)
	if err != nil {
		return nil, err
	}

	var archiver *debugArchiver
	if cfg.ArchiveDebugDumps {
		archiver, err = newDebugArchiver(cfg.ArchiveDir, log)
		if err != nil {
			return nil, err
		}
	}

	return &RolloverController{
		cfg:      cfg,
		log:      log,
		cache:    newViewCache(cfg.ViewCacheCapacity, cfg.ViewCacheTTL),
		archiver: archiver,
		current:  first,
		stop:     make(chan struct{}),
	}, nil
}

// Current returns the buffer producers should currently target.
func (rc *RolloverController) Current() *WindowBuffer {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.current
}

// Views returns the most recently published views for windowStart, if
// still cached.
func (rc *RolloverController) Views(windowStart int64) (*PublishedViews, bool) {
	return rc.cache.Get(windowStart)
}

// Rollover transitions from the current window to newWindowStart. It
// never returns an error to the caller: every failure mode it can hit
// belongs to the engine's error taxonomy, and each is logged and
// absorbed so ingest is never interrupted. The one exception is
// forceEmptyBuffer, which panics if even an empty replacement buffer
// cannot be created.
func (rc *RolloverController) Rollover(newWindowStart int64) {
	rc.mu.Lock()
	prev := rc.current
	rc.mu.Unlock()

	views := rc.publishViews(prev)
	rc.cache.Put(prev.WindowStart(), views)

	if rc.archiver != nil {
		if all, err := prev.FetchAll(); err != nil {
			rc.log.Error("debug archive: failed to fetch W=%d for archiving: %v", prev.WindowStart(), err)
		} else {
			rc.archiver.Archive(prev.WindowStart(), all)
		}
	}

	next := rc.buildNextBuffer(newWindowStart, views.Inflight)

	rc.mu.Lock()
	rc.current = next
	rc.mu.Unlock()

	time.AfterFunc(rc.cfg.PublishDeadline, func() {
		if err := prev.Destroy(); err != nil {
			rc.log.Error("error destroying buffer W=%d: %v", prev.WindowStart(), err)
		}
	})
}

// publishViews computes every aggregation view over prev. A failure
// computing any one view is a ViewError: that view publishes empty
// and the rest proceed.
func (rc *RolloverController) publishViews(prev *WindowBuffer) *PublishedViews {
	views := &PublishedViews{WindowStart: prev.WindowStart()}

	if lat, err := Latency(prev, rc.log); err != nil {
		rc.log.Error("%v: latency view for W=%d: %v", ErrView, prev.WindowStart(), err)
	} else {
		views.Latency = lat
	}

	if byOp, err := LatencyByOp(prev, rc.log); err != nil {
		rc.log.Error("%v: latency-by-op view for W=%d: %v", ErrView, prev.WindowStart(), err)
	} else {
		views.LatencyByOp = byOp
	}

	if util, err := ThreadUtilization(prev, rc.log, prev.WindowStart(), int64(rc.cfg.SamplingInterval/time.Millisecond)); err != nil {
		rc.log.Error("%v: thread utilization view for W=%d: %v", ErrView, prev.WindowStart(), err)
	} else {
		views.ThreadUtilization = util
	}

	inflight, err := InflightDetector(prev, rc.log, prev.WindowStart(), int64(rc.cfg.ExpiryHorizon/time.Millisecond))
	if err != nil {
		rc.log.Error("%v: inflight detection for W=%d: %v", ErrView, prev.WindowStart(), err)
	} else {
		views.Inflight = inflight
	}

	return views
}

// buildNextBuffer creates the buffer for newWindowStart and inserts
// inflight as start-only events. If creation or insertion fails, the
// next buffer is invalidated and a fresh empty one is created instead:
// inflight rollover must never fail silently, and data loss is
// preferred over an inconsistent buffer.
func (rc *RolloverController) buildNextBuffer(newWindowStart int64, inflight []types.InflightRecord) *WindowBuffer {
	next, err := NewWindowBuffer(newWindowStart, rc.log)
	if err != nil {
		rc.log.Error("%v: failed to create buffer W=%d: %v", ErrRollover, newWindowStart, err)
		return rc.forceEmptyBuffer(newWindowStart)
	}

	if err := insertInflight(next, inflight); err != nil {
		rc.log.Error("%v: failed to insert %d inflight rows into W=%d: %v", ErrRollover, len(inflight), newWindowStart, err)
		if derr := next.Destroy(); derr != nil {
			rc.log.Error("error destroying invalidated buffer W=%d: %v", newWindowStart, derr)
		}
		return rc.forceEmptyBuffer(newWindowStart)
	}

	return next
}

// RolloverInflight is the standalone form of the rollover_inflight
// consumer operation: it detects prev's inflight records and inserts
// them into next as start-only events. RolloverController.Rollover
// does not call it: it performs the same two steps itself (through
// publishViews and buildNextBuffer), adding invalidate-and-recreate
// failure handling.
func RolloverInflight(prev, next *WindowBuffer, log *logging.Logger, windowStart, expiryHorizon int64) error {
	inflight, err := InflightDetector(prev, log, windowStart, expiryHorizon)
	if err != nil {
		return err
	}
	return insertInflight(next, inflight)
}

func insertInflight(next *WindowBuffer, inflight []types.InflightRecord) error {
	if len(inflight) == 0 {
		return nil
	}

	events := make([]types.HalfEvent, 0, len(inflight))
	for _, r := range inflight {
		st := r.St
		events = append(events, types.HalfEvent{Dimensions: r.Dimensions, St: &st})
	}

	return next.PutBatch(events)
}

// forceEmptyBuffer creates a fresh empty buffer on the degraded path,
// where creating the next buffer or inserting its inflight rows
// failed; if this creation also fails, it panics,
// since there is no further fallback and an engine with no current
// buffer cannot accept ingest at all.
func (rc *RolloverController) forceEmptyBuffer(windowStart int64) *WindowBuffer {
	next, err := NewWindowBuffer(windowStart, rc.log)
	if err != nil {
		panic("shardmetrics: unable to create an empty window buffer after rollover failure: " + err.Error())
	}
	return next
}

// Start runs the rollover loop: every Δ, it rolls from the current
// window to the next one, until ctx is cancelled or Stop is called.
func (rc *RolloverController) Start(ctx context.Context) {
	rc.wg.Add(1)
	go func() {
		defer rc.wg.Done()
		ticker := time.NewTicker(rc.cfg.SamplingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-rc.stop:
				return
			case <-ticker.C:
				next := rc.Current().WindowStart() + int64(rc.cfg.SamplingInterval/time.Millisecond)
				rc.Rollover(next)
			}
		}
	}()
}

// Stop halts the rollover loop, waits for it to exit, and releases the
// debug archiver's compressor resources if one was configured.
func (rc *RolloverController) Stop() {
	close(rc.stop)
	rc.wg.Wait()
	if rc.archiver != nil {
		rc.archiver.Close()
	}
}
